package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/types"
)

const (
	bucketCreateRetries = 3
	bucketCreateDelay   = 500 * time.Millisecond

	rawContentType = "message/rfc822"
)

// ArchiveClient stores raw imported messages in S3
type ArchiveClient struct {
	s3     *s3.Client
	bucket string
	prefix string
}

func NewArchiveClient(ctx context.Context, cfg types.ArchiveConfig) (*ArchiveClient, error) {
	if !cfg.IsConfigured() {
		return nil, errors.New("archive bucket is not configured")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.S3.Region),
		config.WithRetryMaxAttempts(3),
		config.WithRetryMode(aws.RetryModeStandard),
	}

	if cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.S3.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	log.Info().
		Str("region", cfg.S3.Region).
		Str("endpoint", cfg.S3.Endpoint).
		Str("bucket", cfg.S3.Bucket).
		Msg("archive client initialized")

	return &ArchiveClient{
		s3:     s3Client,
		bucket: cfg.S3.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (c *ArchiveClient) Bucket() string { return c.bucket }

// ObjectKey is {prefix}{account_id}/{external_id}.eml with the external id path-escaped
func (c *ArchiveClient) ObjectKey(accountId, externalId string) string {
	prefix := c.prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + accountId + "/" + url.PathEscape(externalId) + ".eml"
}

// EnsureBucket creates the archive bucket if it does not exist
func (c *ArchiveClient) EnsureBucket(ctx context.Context) error {
	var lastErr error
	for i := 0; i < bucketCreateRetries; i++ {
		_, err := c.s3.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)})
		if err == nil {
			log.Info().Str("bucket", c.bucket).Msg("created archive bucket")
			return nil
		}

		var exists *s3types.BucketAlreadyExists
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &exists) || errors.As(err, &owned) {
			return nil
		}

		lastErr = err
		time.Sleep(bucketCreateDelay)
	}
	return fmt.Errorf("create bucket %s: %w", c.bucket, lastErr)
}

// PutRaw stores a message's raw bytes
func (c *ArchiveClient) PutRaw(ctx context.Context, accountId, externalId string, raw []byte) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(c.ObjectKey(accountId, externalId)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String(rawContentType),
	})
	return err
}

// GetRaw reads a message's raw bytes back
func (c *ArchiveClient) GetRaw(ctx context.Context, accountId, externalId string) ([]byte, error) {
	resp, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.ObjectKey(accountId, externalId)),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
