package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-retry"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds S3-compatible storage configuration. PublicBaseURL is the
// prefix of the durable URLs handed back to callers; it defaults to
// path-style addressing against the endpoint.
type Config struct {
	Endpoint      string
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// Uploader stores edition assets in S3-compatible storage and returns
// durable public URLs. Only the URL is kept locally; the bytes live with the
// storage provider.
type Uploader struct {
	cfg    Config
	client s3Client
}

func NewUploader(cfg Config) *Uploader {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &Uploader{cfg: cfg, client: s3.New(opts)}
}

// Enabled reports whether storage is configured. Uploads on a disabled
// uploader fail; callers may still accept externally hosted URLs.
func (u *Uploader) Enabled() bool {
	return u.cfg.Bucket != "" && u.cfg.AccessKey != "" && u.cfg.SecretKey != ""
}

// Upload stores the object and returns its public URL. Transient failures
// are retried with capped backoff before giving up.
func (u *Uploader) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	if !u.Enabled() {
		return "", fmt.Errorf("storage not configured")
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.cfg.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}

	return u.publicURL(key), nil
}

func (u *Uploader) publicURL(key string) string {
	base := u.cfg.PublicBaseURL
	if base == "" {
		base = strings.TrimSuffix(u.cfg.Endpoint, "/") + "/" + u.cfg.Bucket
	}
	return strings.TrimSuffix(base, "/") + "/" + key
}
