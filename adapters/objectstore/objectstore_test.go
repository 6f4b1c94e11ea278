package objectstore

import (
	"context"
	"testing"

	"tabprep/internal/errors"
	"tabprep/ports"

	"github.com/stretchr/testify/assert"
)

var (
	_ ports.ObjectTarget = S3Options{}
	_ ports.ObjectTarget = AzureOptions{}
	_ ports.ObjectTarget = GCSOptions{}
)

func TestObjectKeyDefaults(t *testing.T) {
	assert.Equal(t, DefaultKey, S3Options{Bucket: "b"}.ObjectKey())
	assert.Equal(t, "out/data.csv", S3Options{Bucket: "b", Key: "out/data.csv"}.ObjectKey())
	assert.Equal(t, DefaultKey, GCSOptions{Bucket: "b"}.ObjectKey())
	assert.Equal(t, "blob.csv", AzureOptions{Blob: "blob.csv"}.ObjectKey())
}

func TestOpenValidatesRequiredFields(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		target ports.ObjectTarget
	}{
		{"s3 without bucket", S3Options{}},
		{"azure without blob", AzureOptions{ConnectionString: "x", Container: "c"}},
		{"gcs without bucket", GCSOptions{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.target.Open(ctx)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		})
	}
}

func TestAzureRejectsMalformedConnectionString(t *testing.T) {
	_, err := AzureOptions{ConnectionString: "not-a-connection-string", Container: "c", Blob: "b"}.
		Open(context.Background())
	assert.Equal(t, errors.CodeConnectionError, errors.GetCode(err))
}

func TestS3OpenWithStaticCredentials(t *testing.T) {
	store, err := S3Options{
		Bucket:          "b",
		Region:          "us-east-1",
		Endpoint:        "http://127.0.0.1:9000",
		UsePathStyle:    true,
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
	}.Open(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, store.Close())
}
