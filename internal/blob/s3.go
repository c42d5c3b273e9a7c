package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"art-market/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures an S3-compatible bucket (AWS or MinIO)
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Store keeps blobs as objects in one bucket
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds a client from static credentials. A non-empty
// Endpoint switches to path-style addressing for MinIO.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: opts.Bucket}, nil
}

// Put uploads data under name
func (s *S3Store) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if !validName(name) {
		return "", &models.StorageError{Op: "put object", Err: fmt.Errorf("invalid blob name %q", name)}
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", &models.StorageError{Op: "put object", Err: err}
	}
	return name, nil
}

// Get downloads the object behind ref
func (s *S3Store) Get(ctx context.Context, ref string) ([]byte, error) {
	if !validName(ref) {
		return nil, fmt.Errorf("blob %q: %w", ref, models.ErrNotFound)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("blob %s: %w", ref, models.ErrNotFound)
		}
		return nil, &models.StorageError{Op: "get object", Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &models.StorageError{Op: "read object", Err: err}
	}
	return data, nil
}

// Delete removes the object behind ref. S3 treats missing keys as deleted.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	if !validName(ref) {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return &models.StorageError{Op: "delete object", Err: err}
	}
	return nil
}
