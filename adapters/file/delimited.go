package file

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"io"
	"unicode/utf8"

	"tabprep/domain/table"
	"tabprep/internal/errors"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// Delimited is a CSV or custom-delimited text file
type Delimited struct {
	Path      string
	Delimiter string // single character, default ","
	Encoding  string // WHATWG label such as "latin1"; default UTF-8
}

// Load reads the file into a table
func (d Delimited) Load(ctx context.Context) (*table.Table, error) {
	f, err := open(d.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadDelimited(f, d.Delimiter, d.Encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", d.Path)
	}
	return t, nil
}

// Store writes the table, header first
func (d Delimited) Store(ctx context.Context, t *table.Table) error {
	f, err := create(d.Path)
	if err != nil {
		return err
	}
	if err := WriteDelimited(f, t, d.Delimiter); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadDelimited parses delimited text. The first record is the header.
func ReadDelimited(r io.Reader, delimiter, encoding string) (*table.Table, error) {
	comma, err := parseDelimiter(delimiter)
	if err != nil {
		return nil, err
	}
	decoded, err := decode(r, encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.ParseError("delimited text", stderrors.New("no header row"))
		}
		return nil, errors.ParseError("delimited text", err)
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError("delimited text", err)
	}

	t, err := defaultCoercer.Table(header, rows)
	if err != nil {
		return nil, errors.ParseError("delimited text", err)
	}
	return t, nil
}

// WriteDelimited writes the table as delimited text. Missing values are empty fields.
func WriteDelimited(w io.Writer, t *table.Table, delimiter string) error {
	comma, err := parseDelimiter(delimiter)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	writer.Comma = comma
	if err := writer.WriteAll(t.Records()); err != nil {
		return errors.Wrap(err, "failed to write delimited text")
	}
	return nil
}

func parseDelimiter(delimiter string) (rune, error) {
	if delimiter == "" {
		return ',', nil
	}
	r, size := utf8.DecodeRuneInString(delimiter)
	if size != len(delimiter) || r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, errors.Newf(errors.CodeInvalidInput, "delimiter must be a single character, got %q", delimiter)
	}
	return r, nil
}

// decode wraps r so it yields UTF-8. An empty label means UTF-8 with an
// optional byte order mark.
func decode(r io.Reader, label string) (io.Reader, error) {
	if label == "" {
		return unicode.UTF8BOM.NewDecoder().Reader(r), nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, errors.Newf(errors.CodeInvalidInput, "unknown text encoding %q", label)
	}
	return enc.NewDecoder().Reader(r), nil
}
