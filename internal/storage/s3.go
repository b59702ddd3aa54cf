package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ObjectStore is the subset of the S3 client used for image uploads.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewS3Client loads the default AWS configuration for region and creates a client.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

type s3Storage struct {
	client  ObjectStore
	bucket  string
	baseURL string
	logger  zerolog.Logger
}

// NewS3Storage creates a FileStorage writing to bucket. Object URLs are built
// from publicBaseURL, or the virtual-hosted bucket URL when it is empty.
func NewS3Storage(client ObjectStore, bucket, region, publicBaseURL string, logger zerolog.Logger) FileStorage {
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &s3Storage{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger.With().Str("component", "s3-storage").Logger(),
	}
}

func (s *s3Storage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("failed to upload object")
		return "", fmt.Errorf("failed to upload object (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	s.logger.Info().Str("key", key).Int("bytes", len(data)).Msg("uploaded object")
	return s.baseURL + "/" + key, nil
}

func (s *s3Storage) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object (bucket=%s, key=%s): %w", s.bucket, key, err)
	}
	return nil
}

func (s *s3Storage) KeyOf(url string) (string, bool) {
	return keyUnder(s.baseURL, url)
}
