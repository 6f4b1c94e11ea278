package sqldb

import (
	"context"
	"fmt"
	"strings"

	"tabprep/domain/table"
	"tabprep/internal/errors"

	"github.com/jmoiron/sqlx"
)

// TableWriter is a table sink that replaces a database table
type TableWriter struct {
	Conn  Connection
	Table string
}

// Store drops the target table if it exists, recreates it from the table's
// columns and inserts every row, all in one transaction
func (w TableWriter) Store(ctx context.Context, t *table.Table) error {
	if strings.TrimSpace(w.Table) == "" {
		return errors.InvalidInput("sql destination requires a table name")
	}
	spec, err := lookup(w.Conn.Dialect)
	if err != nil {
		return err
	}
	db, err := Open(ctx, w.Conn)
	if err != nil {
		return err
	}
	defer db.Close()

	return replaceTable(ctx, db, spec, w.Table, t)
}

func replaceTable(ctx context.Context, db *sqlx.DB, spec dialectSpec, name string, t *table.Table) error {
	if t.NumCols() == 0 {
		return errors.InvalidInput("cannot write a table with no columns")
	}
	quoted := spec.quote(name)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.ConnectionError(db.DriverName(), err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, spec.dropTable(quoted)); err != nil {
		return errors.Wrapf(errors.ConnectionError(db.DriverName(), err), "failed to drop %s", name)
	}
	if _, err := tx.ExecContext(ctx, createStatement(spec, quoted, t)); err != nil {
		return errors.Wrapf(errors.ConnectionError(db.DriverName(), err), "failed to create %s", name)
	}

	if t.NumRows() > 0 {
		stmt, err := tx.PreparexContext(ctx, tx.Rebind(insertStatement(spec, quoted, t)))
		if err != nil {
			return errors.Wrapf(errors.ConnectionError(db.DriverName(), err), "failed to prepare insert into %s", name)
		}
		defer stmt.Close()

		columns := t.Columns()
		args := make([]interface{}, len(columns))
		for r := 0; r < t.NumRows(); r++ {
			for c, col := range columns {
				args[c] = col.Value(r)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return errors.Wrapf(errors.ConnectionError(db.DriverName(), err), "failed to insert row %d", r+1)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.ConnectionError(db.DriverName(), err)
	}
	return nil
}

func createStatement(spec dialectSpec, quoted string, t *table.Table) string {
	defs := make([]string, 0, t.NumCols())
	for _, col := range t.Columns() {
		typ := spec.textType
		if col.IsNumeric() {
			typ = spec.numericType
		}
		defs = append(defs, spec.quote(col.Name)+" "+typ)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(defs, ", "))
}

func insertStatement(spec dialectSpec, quoted string, t *table.Table) string {
	names := make([]string, t.NumCols())
	marks := make([]string, t.NumCols())
	for i, name := range t.Names() {
		names[i] = spec.quote(name)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoted, strings.Join(names, ", "), strings.Join(marks, ", "))
}
