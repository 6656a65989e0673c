package refs

type wellEntry struct {
	Well string `json:"well"`
}

type transfer struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type pipetteOp struct {
	Groups []struct {
		Transfer   []transfer `json:"transfer"`
		Distribute *struct {
			From string      `json:"from"`
			To   []wellEntry `json:"to"`
		} `json:"distribute"`
		Consolidate *struct {
			To   string      `json:"to"`
			From []wellEntry `json:"from"`
		} `json:"consolidate"`
		Mix []wellEntry `json:"mix"`
	} `json:"groups"`
}

func collectPipette(op pipetteOp, s set) {
	for _, g := range op.Groups {
		for _, t := range g.Transfer {
			s.add(t.From, t.To)
		}
		if d := g.Distribute; d != nil {
			s.add(d.From)
			for _, w := range d.To {
				s.add(w.Well)
			}
		}
		if c := g.Consolidate; c != nil {
			s.add(c.To)
			for _, w := range c.From {
				s.add(w.Well)
			}
		}
		for _, w := range g.Mix {
			s.add(w.Well)
		}
	}
}

// Shared by acoustic_transfer and stamp.
type transferGroupsOp struct {
	Groups []struct {
		Transfer []transfer `json:"transfer"`
	} `json:"groups"`
}

func collectTransferGroups(op transferGroupsOp, s set) {
	for _, g := range op.Groups {
		for _, t := range g.Transfer {
			s.add(t.From, t.To)
		}
	}
}

type liquidHandleOp struct {
	Locations []struct {
		Location string `json:"location"`
	} `json:"locations"`
}

func collectLiquidHandle(op liquidHandleOp, s set) {
	for _, l := range op.Locations {
		s.add(l.Location)
	}
}

type provisionOp struct {
	ResourceID string      `json:"resource_id"`
	To         []wellEntry `json:"to"`
}

func collectProvision(op provisionOp, s set) {
	for _, w := range op.To {
		s.add(w.Well)
	}
}

type spreadOp struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func collectSpread(op spreadOp, s set) {
	s.add(op.From, op.To)
}

type pickGroup struct {
	From []string `json:"from"`
	To   []string `json:"to"`
}

// autopick accepts both the grouped layout and the older flat from/to layout.
type autopickOp struct {
	Groups []pickGroup `json:"groups"`
	pickGroup
}

func collectAutopick(op autopickOp, s set) {
	for _, g := range op.Groups {
		s.add(g.From...)
		s.add(g.To...)
	}
	s.add(op.From...)
	s.add(op.To...)
}

type oligosynthesizeOp struct {
	Oligos []struct {
		Destination string `json:"destination"`
	} `json:"oligos"`
}

func collectOligos(op oligosynthesizeOp, s set) {
	for _, o := range op.Oligos {
		s.add(o.Destination)
	}
}

// Each magnetic_transfer group is a sequence of single-key sub-operations
// (bind, dry, incubate, collect, release, mix), all carrying an object.
type magneticTransferOp struct {
	Groups [][]map[string]struct {
		Object string `json:"object"`
	} `json:"groups"`
}

func collectMagneticTransfer(op magneticTransferOp, s set) {
	for _, group := range op.Groups {
		for _, step := range group {
			for _, sub := range step {
				s.add(sub.Object)
			}
		}
	}
}
