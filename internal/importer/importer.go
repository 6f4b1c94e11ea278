// Package importer loads tables from files, SQL queries and uploads.
package importer

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"tabprep/adapters/file"
	"tabprep/domain/table"
	"tabprep/internal/errors"
	"tabprep/internal/logging"
)

// Importer dispatches a source to its adapter
type Importer struct {
	logger *slog.Logger
}

// New creates an importer
func New(logger *slog.Logger) *Importer {
	return &Importer{logger: logging.Component(logger, "importer")}
}

// Import reads the source into a table. No retry is attempted.
func (i *Importer) Import(ctx context.Context, src Source) (*table.Table, error) {
	start := time.Now()
	source, err := Resolve(src)
	if err != nil {
		return nil, err
	}

	t, err := source.Load(ctx)
	if err != nil {
		i.logger.ErrorContext(ctx, "import failed",
			"source", src.Describe(), "code", errors.GetCode(err), "error", err)
		return nil, err
	}

	i.logger.InfoContext(ctx, "imported table",
		"source", src.Describe(),
		"rows", t.NumRows(),
		"columns", t.NumCols(),
		"duration_ms", time.Since(start).Milliseconds())
	return t, nil
}

// ReaderOptions carries the format options for ImportReader
type ReaderOptions struct {
	Delimiter string
	Encoding  string
	Sheet     string
}

// ImportReader parses an uploaded body. SQL has no body form.
func (i *Importer) ImportReader(ctx context.Context, kind Kind, r io.Reader, opts ReaderOptions) (*table.Table, error) {
	var (
		t   *table.Table
		err error
	)
	switch Kind(strings.ToLower(string(kind))) {
	case KindCSV:
		t, err = file.ReadDelimited(r, ",", opts.Encoding)
	case KindTXT:
		t, err = file.ReadDelimited(r, opts.Delimiter, opts.Encoding)
	case KindExcel:
		t, err = file.ReadExcel(r, opts.Sheet)
	case KindJSON:
		t, err = file.ReadJSON(r)
	case KindXML:
		t, err = file.ReadXML(r)
	case KindParquet:
		var data []byte
		data, err = io.ReadAll(r)
		if err == nil {
			t, err = file.ReadParquetBytes(ctx, data)
		}
	default:
		return nil, errors.UnsupportedFormat(string(kind))
	}
	if err != nil {
		i.logger.ErrorContext(ctx, "upload import failed", "kind", kind, "code", errors.GetCode(err), "error", err)
		return nil, err
	}
	i.logger.InfoContext(ctx, "imported upload", "kind", kind, "rows", t.NumRows(), "columns", t.NumCols())
	return t, nil
}
