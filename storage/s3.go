package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures an S3 compatible bucket such as Cloudflare R2
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicURL prefixes object keys in returned URLs.
	// Defaults to endpoint/bucket.
	PublicURL string
}

type putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores blobs in a bucket
type S3 struct {
	client    putter
	bucket    string
	publicURL string
}

// NewS3 builds a path-style client on the given endpoint
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	if opts.Bucket == "" || opts.Region == "" || opts.Endpoint == "" {
		return nil, fmt.Errorf("s3 storage needs a bucket, a region and an endpoint")
	}
	endpoint := strings.TrimRight(opts.Endpoint, "/")

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = endpoint + "/" + opts.Bucket
	}

	return &S3{client: client, bucket: opts.Bucket, publicURL: publicURL}, nil
}

func (s *S3) Save(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Join(PostImages, path.Base(name))

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

func (s *S3) URL(p string) string {
	return joinURL(s.publicURL, p)
}
