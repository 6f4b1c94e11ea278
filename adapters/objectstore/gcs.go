package objectstore

import (
	"context"

	"tabprep/internal/errors"
	"tabprep/ports"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSOptions addresses an object in a Google Cloud Storage bucket.
// Application default credentials are used unless CredentialsFile is set.
type GCSOptions struct {
	Bucket          string `yaml:"bucket" json:"bucket" validate:"required"`
	Object          string `yaml:"object" json:"object,omitempty"`
	CredentialsFile string `yaml:"credentials_file" json:"-"`
}

// ObjectKey returns the object name
func (o GCSOptions) ObjectKey() string { return keyOrDefault(o.Object) }

// Open builds a storage client
func (o GCSOptions) Open(ctx context.Context) (ports.ObjectStore, error) {
	if o.Bucket == "" {
		return nil, errors.InvalidInput("gcp_storage destination requires a bucket")
	}
	var opts []option.ClientOption
	if o.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(o.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.ConnectionError("gcp_storage", err)
	}
	return &gcsStore{client: client, bucket: o.Bucket}, nil
}

type gcsStore struct {
	client *storage.Client
	bucket string
}

func (s *gcsStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(body); err != nil {
		w.Close()
		return errors.ConnectionError("gcp_storage", err)
	}
	// the upload is only committed by Close
	if err := w.Close(); err != nil {
		return errors.ConnectionError("gcp_storage", err)
	}
	return nil
}

func (s *gcsStore) Close() error { return s.client.Close() }
