package file

import (
	"bytes"
	"context"
	"io"
	"math"
	"strconv"

	"tabprep/domain/table"
	"tabprep/internal/errors"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// Parquet is a columnar Parquet file. Integer and floating point columns are
// numeric; every other type is read as text.
type Parquet struct {
	Path string
}

// Load reads every row group into a table
func (p Parquet) Load(ctx context.Context) (*table.Table, error) {
	f, err := open(p.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadParquet(ctx, f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", p.Path)
	}
	return t, nil
}

// Store writes the table as a single row group, snappy compressed
func (p Parquet) Store(ctx context.Context, t *table.Table) error {
	f, err := create(p.Path)
	if err != nil {
		return err
	}
	if err := WriteParquet(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadParquetBytes reads a Parquet file held in memory
func ReadParquetBytes(ctx context.Context, data []byte) (*table.Table, error) {
	return ReadParquet(ctx, bytes.NewReader(data))
}

// ReadParquet decodes a Parquet file into a table
func ReadParquet(ctx context.Context, r parquet.ReaderAtSeeker) (*table.Table, error) {
	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(ctx, r, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, errors.ParseError("parquet", err)
	}
	defer tbl.Release()

	columns := make([]*table.Column, 0, tbl.NumCols())
	for i := 0; i < int(tbl.NumCols()); i++ {
		col := tbl.Column(i)
		if isNumericType(col.DataType()) {
			columns = append(columns, table.NewNumeric(col.Name(), floatsOf(col)))
			continue
		}
		columns = append(columns, table.NewCategorical(col.Name(), stringsOf(col)))
	}
	return table.New(columns...)
}

func isNumericType(dt arrow.DataType) bool {
	return arrow.IsInteger(dt.ID()) || arrow.IsFloating(dt.ID())
}

func floatsOf(col *arrow.Column) []float64 {
	out := make([]float64, 0, col.Len())
	for _, chunk := range col.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			v := math.NaN()
			if !chunk.IsNull(i) {
				v = numericValue(chunk, i)
			}
			// non-finite values are missing, as in the text readers
			if math.IsInf(v, 0) {
				v = math.NaN()
			}
			out = append(out, v)
		}
	}
	return out
}

func numericValue(arr arrow.Array, i int) float64 {
	switch a := arr.(type) {
	case *array.Float64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float16:
		return float64(a.Value(i).Float32())
	case *array.Int64:
		return float64(a.Value(i))
	case *array.Int32:
		return float64(a.Value(i))
	case *array.Int16:
		return float64(a.Value(i))
	case *array.Int8:
		return float64(a.Value(i))
	case *array.Uint64:
		return float64(a.Value(i))
	case *array.Uint32:
		return float64(a.Value(i))
	case *array.Uint16:
		return float64(a.Value(i))
	case *array.Uint8:
		return float64(a.Value(i))
	}
	v, err := strconv.ParseFloat(arr.ValueStr(i), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func stringsOf(col *arrow.Column) []*string {
	out := make([]*string, 0, col.Len())
	for _, chunk := range col.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				out = append(out, nil)
				continue
			}
			var s string
			switch a := chunk.(type) {
			case *array.String:
				s = a.Value(i)
			case *array.LargeString:
				s = a.Value(i)
			case *array.Boolean:
				s = strconv.FormatBool(a.Value(i))
			default:
				s = chunk.ValueStr(i)
			}
			out = append(out, &s)
		}
	}
	return out
}

// WriteParquet encodes the table. Numeric columns are nullable float64,
// categorical columns nullable UTF-8 strings.
func WriteParquet(w io.Writer, t *table.Table) error {
	if t.NumCols() == 0 {
		return errors.InvalidInput("cannot write a table with no columns to parquet")
	}

	columns := t.Columns()
	fields := make([]arrow.Field, len(columns))
	for i, col := range columns {
		dt := arrow.DataType(arrow.BinaryTypes.String)
		if col.IsNumeric() {
			dt = arrow.PrimitiveTypes.Float64
		}
		fields[i] = arrow.Field{Name: col.Name, Type: dt, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for i, col := range columns {
		switch fb := builder.Field(i).(type) {
		case *array.Float64Builder:
			for r, v := range col.Floats {
				if col.IsNull(r) {
					fb.AppendNull()
					continue
				}
				fb.Append(v)
			}
		case *array.StringBuilder:
			for _, v := range col.Strings {
				if v == nil {
					fb.AppendNull()
					continue
				}
				fb.Append(*v)
			}
		}
	}

	rec := builder.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	rowGroup := int64(t.NumRows())
	if rowGroup < 1 {
		rowGroup = 1
	}
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	// the parquet writer closes a sink that is an io.Closer; the caller owns w
	sink := struct{ io.Writer }{w}
	if err := pqarrow.WriteTable(tbl, sink, rowGroup, props, pqarrow.DefaultWriterProps()); err != nil {
		return errors.Wrap(err, "failed to write parquet")
	}
	return nil
}
