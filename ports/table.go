package ports

import (
	"context"

	"tabprep/domain/table"
)

// TableSource loads a whole table from a file, query or upload
type TableSource interface {
	Load(ctx context.Context) (*table.Table, error)
}

// TableSink writes a whole table, replacing whatever the destination held
type TableSink interface {
	Store(ctx context.Context, t *table.Table) error
}
