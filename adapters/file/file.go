// Package file reads and writes tables in the supported file formats:
// delimited text, Excel workbooks, JSON records, XML and Parquet.
package file

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"tabprep/adapters/coercer"
	"tabprep/internal/errors"
)

var defaultCoercer = coercer.Default()

// open opens path for reading, mapping a missing file to NOT_FOUND
func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFound("file " + path)
		}
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	return f, nil
}

// create creates path for writing, making parent directories as needed
func create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", path)
	}
	return f, nil
}
