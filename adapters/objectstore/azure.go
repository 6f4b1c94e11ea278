package objectstore

import (
	"context"

	"tabprep/internal/errors"
	"tabprep/ports"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// AzureOptions addresses a blob in an Azure storage container
type AzureOptions struct {
	ConnectionString string `yaml:"connection_string" json:"-" validate:"required"`
	Container        string `yaml:"container" json:"container" validate:"required"`
	Blob             string `yaml:"blob" json:"blob" validate:"required"`
}

// ObjectKey returns the blob name
func (o AzureOptions) ObjectKey() string { return o.Blob }

// Open builds a blob service client from the connection string
func (o AzureOptions) Open(ctx context.Context) (ports.ObjectStore, error) {
	if o.ConnectionString == "" || o.Container == "" || o.Blob == "" {
		return nil, errors.InvalidInput("azure_blob destination requires connection_string, container and blob")
	}
	client, err := azblob.NewClientFromConnectionString(o.ConnectionString, nil)
	if err != nil {
		return nil, errors.ConnectionError("azure_blob", err)
	}
	return &azureStore{client: client, container: o.Container}, nil
}

type azureStore struct {
	client    *azblob.Client
	container string
}

func (s *azureStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.UploadBuffer(ctx, s.container, key, body, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return errors.ConnectionError("azure_blob", err)
	}
	return nil
}

func (s *azureStore) Close() error { return nil }
