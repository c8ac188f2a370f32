package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// S3Store implements ObjectStore on top of an S3 bucket. Objects are assumed
// publicly readable (bucket policy or a distribution in front); PublicURL
// builds the virtual-hosted-style URL accordingly.
type S3Store struct {
	client *s3.Client
	bucket string
	region string
	logger zerolog.Logger
}

// NewS3Store resolves AWS configuration from the default credential chain
// and returns a store bound to the given bucket.
func NewS3Store(ctx context.Context, bucket, region string, logger zerolog.Logger) (*S3Store, error) {
	if bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	return &S3Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		region: region,
		logger: logger,
	}, nil
}

// Exists issues a HeadObject for the key. A missing object reports false. A
// permission error also reports false: we may lack head rights on a key that
// is nevertheless writable, and an unconfirmed cache entry must not block
// the operation, so we fail open to recomputation and log the ambiguity.
// Every other failure propagates.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return false, nil
		case "AccessDenied", "Forbidden", "403":
			s.logger.Warn().Str("key", key).Msg("s3 permission denied on head, treating as cache miss")
			return false, nil
		}
	}

	return false, fmt.Errorf("storage: head %s: %w", key, err)
}

// Put uploads the bytes under the key with the given content type.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the virtual-hosted-style URL for the key. Each path
// segment is escaped individually so slashes in the key survive.
func (s *S3Store) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, strings.Join(segments, "/"))
}

var _ ObjectStore = (*S3Store)(nil)
