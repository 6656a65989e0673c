package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewMinIOClient(cfg Config) (*minio.Client, error) {
	if !cfg.Enabled {
		return nil, errors.New("object storage is disabled")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
}

// EnsureBuckets creates the graph and run buckets when they are missing.
func EnsureBuckets(ctx context.Context, client *minio.Client, cfg Config) error {
	return walkBuckets(ctx, client, cfg, func(bucket string, exists bool) error {
		if exists {
			return nil
		}
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", bucket, err)
		}
		return nil
	})
}

// CheckBuckets fails when any configured bucket is missing or unreachable.
func CheckBuckets(ctx context.Context, client *minio.Client, cfg Config) error {
	return walkBuckets(ctx, client, cfg, func(bucket string, exists bool) error {
		if !exists {
			return fmt.Errorf("bucket %s does not exist", bucket)
		}
		return nil
	})
}

func walkBuckets(ctx context.Context, client *minio.Client, cfg Config, fn func(bucket string, exists bool) error) error {
	if client == nil {
		return errors.New("minio client is required")
	}
	for _, bucket := range cfg.Buckets() {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if err := fn(bucket, exists); err != nil {
			return err
		}
	}
	return nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}
