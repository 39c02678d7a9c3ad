// Package archive stores rendered documents in S3 when a bucket is
// configured.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/pkg/config"
)

// Archiver stores body under key and returns the full object key.
type Archiver interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Enabled() bool
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archiver struct {
	client putObjectAPI
	bucket string
	prefix string
}

func NewS3Archiver(client putObjectAPI, bucket, prefix string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix}
}

func (a *S3Archiver) Enabled() bool { return true }

func (a *S3Archiver) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	full := path.Join(a.prefix, key)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(full),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload s3://%s/%s: %w", a.bucket, full, err)
	}
	return full, nil
}

// Nop discards everything.
type Nop struct{}

func (Nop) Enabled() bool { return false }

func (Nop) Put(context.Context, string, []byte, string) (string, error) { return "", nil }

// New returns an S3 archiver for receipt.archive.bucket, or Nop when no
// bucket is configured.
func New(cfg *config.Config, log *zap.SugaredLogger) (Archiver, error) {
	ac := cfg.Receipt.Archive
	if ac.Bucket == "" {
		log.Infow("receipt archive disabled")
		return Nop{}, nil
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if ac.Region != "" {
		opts = append(opts, awsconfig.WithRegion(ac.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	log.Infow("receipt archive enabled", "bucket", ac.Bucket, "region", awsCfg.Region, "prefix", ac.Prefix)
	return NewS3Archiver(s3.NewFromConfig(awsCfg), ac.Bucket, ac.Prefix), nil
}

var Module = fx.Options(
	fx.Provide(New),
)
