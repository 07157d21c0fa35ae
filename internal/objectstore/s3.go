package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/guttosm/xetrapulse/internal/logger"
)

// S3Config holds the connection details of an S3-compatible endpoint.
type S3Config struct {
	Endpoint  string // host[:port], no scheme (e.g. "s3.amazonaws.com")
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// S3 is a Store backed by one bucket of an S3-compatible service.
type S3 struct {
	client *minio.Client
	bucket string
}

var _ Store = (*S3)(nil)
var _ Pinger = (*S3)(nil)

// NewS3 builds a client for bucket. No request is made until first use.
func NewS3(cfg S3Config, bucket string) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client for %s: %w", cfg.Endpoint, err)
	}
	return &S3{client: client, bucket: bucket}, nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *S3) Get(ctx context.Context, key string) ([]byte, error) {
	logger.FromContext(ctx).Debug().Str("bucket", s.bucket).Str("key", key).Msg("s3 get")
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap("get", key, err)
	}
	defer func() { _ = obj.Close() }()

	// GetObject is lazy; a missing key only surfaces on the first read.
	b, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.wrap("get", key, err)
	}
	return b, nil
}

func (s *S3) Put(ctx context.Context, key string, body []byte) error {
	logger.FromContext(ctx).Debug().Str("bucket", s.bucket).Str("key", key).Int("bytes", len(body)).Msg("s3 put")
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return s.wrap("put", key, err)
	}
	return nil
}

// Ping checks the bucket exists.
func (s *S3) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

func (s *S3) wrap(op, key string, err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && (resp.Code == "NoSuchKey" || resp.StatusCode == 404) {
		return fmt.Errorf("%s s3://%s/%s: %w", op, s.bucket, key, ErrNotFound)
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%s s3://%s/%s: %w", op, s.bucket, key, ErrNotFound)
	}
	return fmt.Errorf("%s s3://%s/%s: %w", op, s.bucket, key, err)
}
