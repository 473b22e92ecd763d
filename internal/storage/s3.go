// Package storage – S3 blob store
//
// Generated images are parked in an S3 bucket just long enough to serve
// share cards. Every object is written under a common prefix with a
// delete-after metadata stamp; a periodic sweep removes objects past their
// stamp, so the bucket never accumulates state the process would miss.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

const (
	// objectPrefix scopes every bot-owned object in the bucket.
	objectPrefix = "temp-images/"

	// objectTTL is how long an uploaded image stays retrievable.
	objectTTL = 24 * time.Hour

	// deleteAfterKey is the metadata key carrying the expiry stamp,
	// unix milliseconds.
	deleteAfterKey = "delete-after"
)

// Config carries the bucket coordinates. Endpoint is optional and enables
// S3-compatible stores (MinIO, R2); PublicBaseURL overrides the default
// virtual-hosted URL when the bucket sits behind a CDN.
type Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// s3API is the slice of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// BlobStore uploads image bytes to S3 and sweeps expired objects.
type BlobStore struct {
	api   s3API
	cfg   Config
	log   zerolog.Logger
	clock func() time.Time
}

// Option customizes a BlobStore.
type Option func(*BlobStore)

// WithClock substitutes the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(b *BlobStore) { b.clock = clock }
}

// withAPI substitutes the S3 client. Used by tests.
func withAPI(api s3API) Option {
	return func(b *BlobStore) { b.api = api }
}

// New builds a BlobStore against the configured bucket.
func New(ctx context.Context, cfg Config, log zerolog.Logger, opts ...Option) (*BlobStore, error) {
	b := &BlobStore{
		cfg:   cfg,
		log:   log,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.api != nil {
		return b, nil
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	b.api = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return b, nil
}

// Upload stores the image under the bot prefix and returns its public URL.
func (b *BlobStore) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	key := objectPrefix + filename
	expiry := b.clock().Add(objectTTL).UnixMilli()

	_, err := b.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(b.cfg.Bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String("image/jpeg"),
		CacheControl: aws.String("public, max-age=86400"),
		Metadata: map[string]string{
			deleteAfterKey: strconv.FormatInt(expiry, 10),
		},
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	b.log.Info().Str("key", key).Int("bytes", len(data)).Msg("image uploaded")
	return b.publicURL(key), nil
}

// publicURL builds the retrieval URL for an object key.
func (b *BlobStore) publicURL(key string) string {
	if b.cfg.PublicBaseURL != "" {
		return strings.TrimRight(b.cfg.PublicBaseURL, "/") + "/" + key
	}
	if b.cfg.Endpoint != "" {
		return strings.TrimRight(b.cfg.Endpoint, "/") + "/" + b.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.cfg.Bucket, b.cfg.Region, key)
}

// CleanupExpired deletes objects whose delete-after stamp has passed and
// returns how many were removed. Objects without a stamp are left alone.
func (b *BlobStore) CleanupExpired(ctx context.Context) (int, error) {
	now := b.clock().UnixMilli()
	deleted := 0

	var token *string
	for {
		page, err := b.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(b.cfg.Bucket),
			Prefix:            aws.String(objectPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return deleted, fmt.Errorf("list objects: %w", err)
		}

		for _, obj := range page.Contents {
			head, err := b.api.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(b.cfg.Bucket),
				Key:    obj.Key,
			})
			if err != nil {
				b.log.Warn().Err(err).Str("key", aws.ToString(obj.Key)).Msg("head object failed, skipping")
				continue
			}
			stamp, ok := head.Metadata[deleteAfterKey]
			if !ok {
				continue
			}
			expiry, err := strconv.ParseInt(stamp, 10, 64)
			if err != nil || now <= expiry {
				continue
			}
			if _, err := b.api.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(b.cfg.Bucket),
				Key:    obj.Key,
			}); err != nil {
				b.log.Warn().Err(err).Str("key", aws.ToString(obj.Key)).Msg("delete object failed")
				continue
			}
			deleted++
		}

		if page.NextContinuationToken == nil {
			break
		}
		token = page.NextContinuationToken
	}

	if deleted > 0 {
		b.log.Info().Int("deleted", deleted).Msg("expired images removed")
	}
	return deleted, nil
}

// RunCleanup sweeps the bucket at the given interval until ctx is done.
func (b *BlobStore) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.CleanupExpired(ctx); err != nil {
				b.log.Error().Err(err).Msg("bucket cleanup failed")
			}
		}
	}
}
