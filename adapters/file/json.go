package file

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"

	"tabprep/domain/table"
	"tabprep/internal/errors"

	"github.com/tidwall/gjson"
)

// JSON is a file holding an array of records, or an object of equal-length
// column arrays. Records are written as an array of objects.
type JSON struct {
	Path string
}

// Load reads the file into a table
func (j JSON) Load(ctx context.Context) (*table.Table, error) {
	f, err := open(j.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadJSON(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", j.Path)
	}
	return t, nil
}

// Store writes the table as an array of records
func (j JSON) Store(ctx context.Context, t *table.Table) error {
	f, err := create(j.Path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSON parses JSON records. Nested objects are flattened one level into
// "parent.child" columns; anything deeper is kept as raw JSON text.
func ReadJSON(r io.Reader) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read JSON")
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.ParseError("JSON", stderrors.New("invalid JSON document"))
	}

	root := gjson.ParseBytes(data)
	cols := newColumnSet()
	switch {
	case root.IsArray():
		if err := readRecords(root, cols); err != nil {
			return nil, err
		}
	case root.IsObject():
		if err := readColumnArrays(root, cols); err != nil {
			return nil, err
		}
	default:
		return nil, errors.ParseError("JSON", stderrors.New("expected an array of records or an object of columns"))
	}
	return cols.table()
}

func readRecords(root gjson.Result, cols *columnSet) error {
	var failure error
	row := 0
	root.ForEach(func(_, record gjson.Result) bool {
		if !record.IsObject() {
			failure = errors.ParseError("JSON", fmt.Errorf("record %d is not an object", row))
			return false
		}
		record.ForEach(func(key, value gjson.Result) bool {
			if value.IsObject() {
				value.ForEach(func(child, nested gjson.Result) bool {
					cols.set(key.String()+"."+child.String(), row, jsonValue(nested))
					return true
				})
				return true
			}
			cols.set(key.String(), row, jsonValue(value))
			return true
		})
		row++
		cols.grow(row)
		return true
	})
	return failure
}

func readColumnArrays(root gjson.Result, cols *columnSet) error {
	var failure error
	length := -1
	root.ForEach(func(key, values gjson.Result) bool {
		if !values.IsArray() {
			failure = errors.ParseError("JSON", fmt.Errorf("column %q is not an array", key.String()))
			return false
		}
		items := values.Array()
		if length >= 0 && len(items) != length {
			failure = errors.ParseError("JSON", fmt.Errorf("column %q has %d values, expected %d", key.String(), len(items), length))
			return false
		}
		length = len(items)
		cols.grow(length)
		for i, item := range items {
			cols.set(key.String(), i, jsonValue(item))
		}
		return true
	})
	return failure
}

func jsonValue(v gjson.Result) interface{} {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.Number:
		return v.Num
	case gjson.String:
		return v.Str
	case gjson.True, gjson.False:
		return v.Bool()
	default:
		return v.Raw
	}
}

// WriteJSON writes the table as an array of records in column order.
// Missing values are written as null.
func WriteJSON(w io.Writer, t *table.Table) error {
	bw := bufio.NewWriter(w)
	keys := make([][]byte, t.NumCols())
	for i, name := range t.Names() {
		k, err := json.Marshal(name)
		if err != nil {
			return errors.Wrap(err, "failed to encode column name")
		}
		keys[i] = k
	}

	columns := t.Columns()
	bw.WriteByte('[')
	for r := 0; r < t.NumRows(); r++ {
		if r > 0 {
			bw.WriteByte(',')
		}
		bw.WriteByte('{')
		for c, col := range columns {
			if c > 0 {
				bw.WriteByte(',')
			}
			bw.Write(keys[c])
			bw.WriteByte(':')
			if err := writeJSONValue(bw, col, r); err != nil {
				return err
			}
		}
		bw.WriteByte('}')
	}
	bw.WriteByte(']')
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "failed to write JSON")
	}
	return nil
}

func writeJSONValue(w *bufio.Writer, col *table.Column, row int) error {
	if col.IsNull(row) {
		_, err := w.WriteString("null")
		return err
	}
	if col.IsNumeric() {
		v := col.Floats[row]
		if math.IsInf(v, 0) {
			_, err := w.WriteString("null")
			return err
		}
		_, err := w.WriteString(table.FormatFloat(v))
		return err
	}
	b, err := json.Marshal(*col.Strings[row])
	if err != nil {
		return errors.Wrap(err, "failed to encode value")
	}
	_, err = w.Write(b)
	return err
}
