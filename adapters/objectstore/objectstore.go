// Package objectstore uploads exports to AWS S3, Azure Blob Storage and
// Google Cloud Storage. Each option type opens a fresh client per export.
package objectstore

// DefaultKey is the object name used when none is given
const DefaultKey = "exported_data.csv"

func keyOrDefault(key string) string {
	if key == "" {
		return DefaultKey
	}
	return key
}
