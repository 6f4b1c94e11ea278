// Package exporter writes a table to files, a database table or an object
// store. Failures never escape Export; they are logged and reported as false.
package exporter

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"tabprep/adapters/file"
	"tabprep/adapters/sqldb"
	"tabprep/domain/table"
	"tabprep/internal/errors"
	"tabprep/internal/logging"
	"tabprep/ports"
)

// CSVContentType is the content type of object-store uploads
const CSVContentType = "text/csv"

// TargetFunc resolves the object store behind a destination
type TargetFunc func(d Destination) (ports.ObjectTarget, error)

// Exporter dispatches a table to the destination named by its kind
type Exporter struct {
	logger  *slog.Logger
	targets map[Kind]TargetFunc
}

// Option configures an Exporter
type Option func(*Exporter)

// WithTarget replaces the object store used for kind
func WithTarget(kind Kind, fn TargetFunc) Option {
	return func(e *Exporter) { e.targets[kind] = fn }
}

// New creates an exporter with the S3, Azure and GCS stores wired in
func New(logger *slog.Logger, opts ...Option) *Exporter {
	e := &Exporter{
		logger: logging.Component(logger, "exporter"),
		targets: map[Kind]TargetFunc{
			KindS3: func(d Destination) (ports.ObjectTarget, error) {
				if d.S3 == nil {
					return nil, errors.InvalidInput("aws_s3 destination requires s3 options")
				}
				return *d.S3, nil
			},
			KindAzure: func(d Destination) (ports.ObjectTarget, error) {
				if d.Azure == nil {
					return nil, errors.InvalidInput("azure_blob destination requires azure options")
				}
				return *d.Azure, nil
			},
			KindGCS: func(d Destination) (ports.ObjectTarget, error) {
				if d.GCS == nil {
					return nil, errors.InvalidInput("gcp_storage destination requires gcs options")
				}
				return *d.GCS, nil
			},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes t to d and reports whether it succeeded. Errors and panics
// raised while exporting are logged, never returned.
func (e *Exporter) Export(ctx context.Context, t *table.Table, d Destination) bool {
	return e.ExportResult(ctx, t, d) == nil
}

// ExportResult writes t to d and returns the failure, if any. A panic in a
// handler is recovered and returned as INTERNAL_ERROR.
func (e *Exporter) ExportResult(ctx context.Context, t *table.Table, d Destination) (err error) {
	start := time.Now()
	logger := e.logger.With("kind", d.Kind, "destination", d.Describe())

	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.CodeInternalError, "export panicked: %v", r)
		}
		if err != nil {
			logger.Error("export failed", "error", err, "code", errors.GetCode(err))
			return
		}
		logger.Info("export complete",
			"rows", t.NumRows(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	if t == nil {
		return errors.InvalidInput("nothing to export")
	}
	return e.export(ctx, t, d)
}

func (e *Exporter) export(ctx context.Context, t *table.Table, d Destination) error {
	switch kind := d.kind(); kind {
	case KindS3, KindAzure, KindGCS:
		target, err := e.targets[kind](d)
		if err != nil {
			return err
		}
		return upload(ctx, target, t)
	}

	dst, err := sink(d)
	if err != nil {
		return err
	}
	return dst.Store(ctx, t)
}

// sink resolves the file or database writer for d
func sink(d Destination) (ports.TableSink, error) {
	switch d.kind() {
	case KindCSV:
		return file.Delimited{Path: d.path(), Delimiter: d.Delimiter}, nil
	case KindTXT:
		delimiter := d.Delimiter
		if delimiter == "" {
			delimiter = DefaultTextDelimiter
		}
		return file.Delimited{Path: d.path(), Delimiter: delimiter}, nil
	case KindExcel:
		return file.Excel{Path: d.path(), Sheet: d.Sheet}, nil
	case KindJSON:
		return file.JSON{Path: d.path()}, nil
	case KindParquet:
		return file.Parquet{Path: d.path()}, nil
	case KindSQL:
		if d.Connection == nil {
			return nil, errors.InvalidInput("sql destination requires a connection")
		}
		return sqldb.TableWriter{Conn: *d.Connection, Table: d.Table}, nil
	}
	return nil, errors.UnsupportedFormat(string(d.Kind))
}

// upload sends t as CSV to the target, opening a client for this call only
func upload(ctx context.Context, target ports.ObjectTarget, t *table.Table) error {
	var buf bytes.Buffer
	if err := file.WriteDelimited(&buf, t, ","); err != nil {
		return err
	}

	store, err := target.Open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Put(ctx, target.ObjectKey(), buf.Bytes(), CSVContentType); err != nil {
		return errors.Wrapf(err, "uploading %s", target.ObjectKey())
	}
	return nil
}
