// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package blob

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/samber/oops"
)

// S3Config holds the connection settings for an S3-compatible store.
// Endpoint may point at MinIO or any other compatible server.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string

	// PublicBaseURL is the externally reachable prefix photo URLs are
	// composed from. Defaults to Endpoint/Bucket when empty.
	PublicBaseURL string
}

// s3API is the subset of the S3 client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store implements Store over an S3-compatible object store.
type S3Store struct {
	client  s3API
	bucket  string
	baseURL string
}

// NewS3Store builds a store from config, using static credentials and a
// custom endpoint.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, oops.Code("BLOB_CONFIG_INVALID").Errorf("bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, oops.Code("BLOB_CONFIG_INVALID").Wrap(err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg),
	}, nil
}

// NewS3StoreWithClient builds a store over an existing client. Tests use
// this to substitute a fake.
func NewS3StoreWithClient(client s3API, bucket, baseURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

func publicBaseURL(cfg S3Config) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
}

// Upload writes the body under key and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", oops.Code("BLOB_UPLOAD_FAILED").
			With("key", key).
			Wrap(err)
	}
	return s.URL(key), nil
}

// Delete removes the blob at key. S3 delete is idempotent, so a missing
// key succeeds.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return oops.Code("BLOB_DELETE_FAILED").
			With("key", key).
			Wrap(err)
	}
	return nil
}

// URL composes the public URL for a key.
func (s *S3Store) URL(key string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}

// Compile-time interface check.
var _ Store = (*S3Store)(nil)
