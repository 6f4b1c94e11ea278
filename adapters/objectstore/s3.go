package objectstore

import (
	"bytes"
	"context"

	"tabprep/internal/errors"
	"tabprep/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options addresses an S3 bucket. Credentials come from the default AWS
// chain unless AccessKeyID is set.
type S3Options struct {
	Bucket          string `yaml:"bucket" json:"bucket" validate:"required"`
	Key             string `yaml:"key" json:"key,omitempty"`
	Region          string `yaml:"region" json:"region,omitempty"`
	Endpoint        string `yaml:"endpoint" json:"endpoint,omitempty"`
	UsePathStyle    bool   `yaml:"use_path_style" json:"use_path_style,omitempty"`
	AccessKeyID     string `yaml:"access_key_id" json:"-"`
	SecretAccessKey string `yaml:"secret_access_key" json:"-"`
	SessionToken    string `yaml:"session_token" json:"-"`
}

// ObjectKey returns the key the export is written under
func (o S3Options) ObjectKey() string { return keyOrDefault(o.Key) }

// Open builds an S3 client
func (o S3Options) Open(ctx context.Context) (ports.ObjectStore, error) {
	if o.Bucket == "" {
		return nil, errors.InvalidInput("aws_s3 destination requires a bucket")
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.Region))
	}
	if o.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, o.SessionToken)))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.ConnectionError("aws_s3", err)
	}

	client := s3.NewFromConfig(cfg, func(opts *s3.Options) {
		if o.Endpoint != "" {
			opts.BaseEndpoint = aws.String(o.Endpoint)
		}
		opts.UsePathStyle = o.UsePathStyle
	})
	return &s3Store{client: client, bucket: o.Bucket}, nil
}

type s3Store struct {
	client *s3.Client
	bucket string
}

func (s *s3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.ConnectionError("aws_s3", err)
	}
	return nil
}

// Close is a no-op; the S3 client holds no connections of its own
func (s *s3Store) Close() error { return nil }
