package ports

import "context"

// ObjectStore uploads blobs into the bucket or container it was opened for.
// Close releases the underlying client.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Close() error
}

// ObjectStoreOpener opens a client to an object store
type ObjectStoreOpener interface {
	Open(ctx context.Context) (ObjectStore, error)
}

// ObjectTarget is an opener plus the key the export is written under
type ObjectTarget interface {
	ObjectStoreOpener
	ObjectKey() string
}
