package objectstore

import (
	"context"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Enabled:     true,
		Endpoint:    "localhost:9000",
		AccessKey:   "a",
		SecretKey:   "b",
		Region:      "us-east-1",
		BucketGraph: "graphs",
		BucketRuns:  "runs",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	withScheme := valid
	withScheme.Endpoint = "http://localhost:9000"
	if err := withScheme.Validate(); err == nil {
		t.Fatalf("Validate() expected error for scheme in endpoint")
	}

	noBucket := valid
	noBucket.BucketGraph = ""
	if err := noBucket.Validate(); err == nil {
		t.Fatalf("Validate() expected error for missing graphs bucket")
	}

	disabled := Config{}
	if err := disabled.Validate(); err != nil {
		t.Fatalf("disabled config should validate, got %v", err)
	}
}

func TestNewMinIOClientDisabled(t *testing.T) {
	if _, err := NewMinIOClient(Config{}); err == nil {
		t.Fatalf("expected error for disabled storage")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("RUNGRAPH_MINIO_ENABLED", "true")
	t.Setenv("RUNGRAPH_MINIO_BUCKET_GRAPHS", "lab-graphs")
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if !cfg.Enabled || cfg.BucketGraph != "lab-graphs" || cfg.BucketRuns != "runs" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if got := cfg.Buckets(); len(got) != 2 || got[0] != "lab-graphs" {
		t.Fatalf("Buckets()=%v", got)
	}
}

func TestBucketChecksRequireClient(t *testing.T) {
	cfg := Config{Enabled: true, BucketGraph: "graphs", BucketRuns: "runs"}
	if err := EnsureBuckets(context.Background(), nil, cfg); err == nil {
		t.Fatalf("expected error without client")
	}
	if err := CheckBuckets(context.Background(), nil, cfg); err == nil {
		t.Fatalf("expected error without client")
	}
}
