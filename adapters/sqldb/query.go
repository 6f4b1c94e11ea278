package sqldb

import (
	"context"
	"strconv"
	"strings"
	"time"

	"tabprep/adapters/coercer"
	"tabprep/domain/table"
	"tabprep/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Query is a table source backed by a SQL query
type Query struct {
	Conn Connection
	SQL  string
}

// Load opens a connection, runs the query, and closes the connection
func (q Query) Load(ctx context.Context) (*table.Table, error) {
	if strings.TrimSpace(q.SQL) == "" {
		return nil, errors.InvalidInput("sql source requires a query")
	}
	db, err := Open(ctx, q.Conn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return queryTable(ctx, db, q.SQL)
}

// Open connects to the database described by c and checks it is reachable
func Open(ctx context.Context, c Connection) (*sqlx.DB, error) {
	driver, dsn, err := DSN(c)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.ConnectionError(string(c.Dialect), err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.ConnectionError(string(c.Dialect), err)
	}
	return db, nil
}

func queryTable(ctx context.Context, db *sqlx.DB, query string) (*table.Table, error) {
	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(errors.ConnectionError(db.DriverName(), err), "query failed")
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.ConnectionError(db.DriverName(), err)
	}
	numeric := make([]bool, len(names))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			numeric[i] = isNumericTypeName(ct.DatabaseTypeName())
		}
	}

	values := make([][]interface{}, len(names))
	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return nil, errors.ConnectionError(db.DriverName(), err)
		}
		for i, v := range row {
			values[i] = append(values[i], normalize(v, numeric[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ConnectionError(db.DriverName(), err)
	}

	c := coercer.Default()
	columns := make([]*table.Column, len(names))
	for i, name := range names {
		if values[i] == nil {
			values[i] = []interface{}{}
		}
		columns[i] = c.Values(name, values[i])
	}
	return table.New(columns...)
}

// normalize maps driver values to float64, string, bool or nil. Text from
// numeric database types (MySQL DECIMAL arrives as bytes) is parsed.
func normalize(v interface{}, numericType bool) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return textValue(string(x), numericType)
	case string:
		return textValue(x, numericType)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	return v
}

func textValue(s string, numericType bool) interface{} {
	if numericType {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return s
}

func isNumericTypeName(name string) bool {
	name = strings.ToUpper(name)
	for _, marker := range []string{"INT", "DEC", "NUM", "FLOAT", "DOUBLE", "REAL", "FIXED"} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
