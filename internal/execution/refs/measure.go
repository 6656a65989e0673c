package refs

type objectOp struct {
	Object string `json:"object"`
}

var singleObject = ruleFor(func(op objectOp, s set) {
	s.add(op.Object)
})

type objectListOp struct {
	Object []string `json:"object"`
}

var objectList = ruleFor(func(op objectListOp, s set) {
	s.add(op.Object...)
})

type wellListOp struct {
	Wells []string `json:"wells"`
}

var wellList = ruleFor(func(op wellListOp, s set) {
	s.add(op.Wells...)
})

type flowAnalyzeOp struct {
	Samples          []wellEntry `json:"samples"`
	PositiveControls []wellEntry `json:"positive_controls"`
	NegativeControls []wellEntry `json:"negative_controls"`
}

func collectFlowAnalyze(op flowAnalyzeOp, s set) {
	for _, group := range [][]wellEntry{op.Samples, op.PositiveControls, op.NegativeControls} {
		for _, w := range group {
			s.add(w.Well)
		}
	}
}

type gelSeparateOp struct {
	Objects []string `json:"objects"`
}

func collectGelSeparate(op gelSeparateOp, s set) {
	s.add(op.Objects...)
}

type gelPurifyOp struct {
	Objects []string `json:"objects"`
	Extract []struct {
		Destination string `json:"destination"`
	} `json:"extract"`
}

func collectGelPurify(op gelPurifyOp, s set) {
	s.add(op.Objects...)
	for _, e := range op.Extract {
		s.add(e.Destination)
	}
}

type illuminaOp struct {
	Lanes []objectOp `json:"lanes"`
}

func collectIllumina(op illuminaOp, s set) {
	for _, l := range op.Lanes {
		s.add(l.Object)
	}
}

type genericTaskOp struct {
	Containers []string `json:"containers"`
}

func collectGenericTask(op genericTaskOp, s set) {
	s.add(op.Containers...)
}
