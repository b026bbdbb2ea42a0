// internal/storage/paste/s3.go
package paste

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/newthinker/rbin/internal/core"
)

// S3Config holds S3 connection configuration
type S3Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string

	// HTTPClient overrides the SDK's default transport when set.
	HTTPClient *http.Client
}

// S3Storage implements Backend for S3-compatible object stores. Exclusive
// create relies on conditional writes (If-None-Match: *), so the target
// service must support them.
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 creates a new S3 backend
func NewS3(cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("s3 bucket is required"))
	}

	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		// Many S3-compatible services reject the default CRC trailers.
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	}

	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true // Required for MinIO and most S3-compatible services
	}
	if cfg.HTTPClient != nil {
		opts.HTTPClient = cfg.HTTPClient
	}

	client := s3.New(opts)

	return &S3Storage{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.TrimSuffix(cfg.Prefix, "/"),
	}, nil
}

func (s *S3Storage) key(id string) string {
	if s.prefix == "" {
		return id
	}
	return s.prefix + "/" + id
}

func (s *S3Storage) Create(ctx context.Context, id string, content []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(id)),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/plain; charset=utf-8"),
		IfNoneMatch: aws.String("*"),
	})
	if err == nil {
		return nil
	}
	switch statusCode(err) {
	case http.StatusPreconditionFailed, http.StatusConflict:
		// 409 is returned when a concurrent conditional write is in flight.
		return fmt.Errorf("%s: %w", id, ErrExists)
	}
	return core.WrapError(core.ErrStorageIO, fmt.Errorf("putting %s: %w", id, err))
}

func (s *S3Storage) Read(ctx context.Context, id string) ([]byte, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) || statusCode(err) == http.StatusNotFound {
			return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("%s", id))
		}
		return nil, core.WrapError(core.ErrStorageIO, fmt.Errorf("getting %s: %w", id, err))
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageIO, fmt.Errorf("reading %s: %w", id, err))
	}
	return data, nil
}

// statusCode extracts the HTTP status from an SDK error. S3 wraps
// awshttp.ResponseError in its own type, so match on the method instead of
// the concrete type.
func statusCode(err error) int {
	var re interface{ HTTPStatusCode() int }
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}
