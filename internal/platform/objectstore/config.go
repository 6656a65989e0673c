package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/animus-labs/rungraph/internal/platform/env"
)

type Config struct {
	// Enabled turns graph archiving on. The service runs without MinIO when false.
	Enabled     bool
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Region      string
	UseSSL      bool
	BucketGraph string
	BucketRuns  string
}

func ConfigFromEnv() (Config, error) {
	enabled, err := env.Bool("RUNGRAPH_MINIO_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	useSSL, err := env.Bool("RUNGRAPH_MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Enabled:     enabled,
		Endpoint:    env.String("RUNGRAPH_MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:   env.String("RUNGRAPH_MINIO_ACCESS_KEY", "rungraph"),
		SecretKey:   env.String("RUNGRAPH_MINIO_SECRET_KEY", "rungraphminio"),
		Region:      env.String("RUNGRAPH_MINIO_REGION", "us-east-1"),
		UseSSL:      useSSL,
		BucketGraph: env.String("RUNGRAPH_MINIO_BUCKET_GRAPHS", "graphs"),
		BucketRuns:  env.String("RUNGRAPH_MINIO_BUCKET_RUNS", "runs"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.BucketGraph) == "" {
		return errors.New("graphs bucket is required")
	}
	if strings.TrimSpace(c.BucketRuns) == "" {
		return errors.New("runs bucket is required")
	}
	return nil
}

// Buckets lists every bucket the service writes to.
func (c Config) Buckets() []string {
	return []string{c.BucketGraph, c.BucketRuns}
}
