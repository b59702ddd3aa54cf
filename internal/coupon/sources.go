package coupon

import (
	"context"
	"errors"
	"fmt"
	"path"

	"tapandbuy/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// BucketReader is the part of the S3 API the import path needs.
type BucketReader interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type bucketLoader struct {
	client BucketReader
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewBucketLoader reads import files stored under prefix in bucket. The name
// passed to Load is joined onto the prefix.
func NewBucketLoader(client BucketReader, bucket, prefix string, logger zerolog.Logger) Loader {
	return &bucketLoader{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger.With().Str("component", "coupon-bucket-loader").Str("bucket", bucket).Logger(),
	}
}

func (l *bucketLoader) Load(ctx context.Context, name string) ([]model.Coupon, error) {
	key := path.Join(l.prefix, name)
	source := "s3://" + l.bucket + "/" + key

	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			l.logger.Debug().Str("key", key).Msg("no coupon import in bucket")
			return nil, fmt.Errorf("%w: %s", ErrImportNotFound, source)
		}
		l.logger.Error().Err(err).Str("key", key).Msg("failed to fetch coupon import")
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	defer out.Body.Close()

	coupons, err := readCouponFile(ctx, out.Body, source)
	if err != nil {
		return nil, err
	}
	l.logger.Info().Str("key", key).Int("coupons", len(coupons)).Msg("read coupon import")
	return coupons, nil
}

// ErrImportNotFound reports that a source holds no file with the given name.
var ErrImportNotFound = errors.New("coupon import not found")

type chainLoader struct {
	sources []Loader
	logger  zerolog.Logger
}

// NewChainLoader asks each non-nil source in turn and returns the first file
// that loads. When every source fails the errors are joined.
func NewChainLoader(logger zerolog.Logger, sources ...Loader) Loader {
	var live []Loader
	for _, s := range sources {
		if s != nil {
			live = append(live, s)
		}
	}
	return &chainLoader{
		sources: live,
		logger:  logger.With().Str("component", "coupon-chain-loader").Logger(),
	}
}

func (c *chainLoader) Load(ctx context.Context, name string) ([]model.Coupon, error) {
	if len(c.sources) == 0 {
		return nil, fmt.Errorf("%w: no sources configured for %s", ErrImportNotFound, name)
	}

	var errs []error
	for i, src := range c.sources {
		coupons, err := src.Load(ctx, name)
		if err == nil {
			return coupons, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn().Err(err).Int("source", i).Str("name", name).Msg("coupon source failed, trying next")
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
