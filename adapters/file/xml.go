package file

import (
	"context"
	"encoding/xml"
	stderrors "errors"
	"io"
	"strings"

	"tabprep/domain/table"
	"tabprep/internal/errors"
)

// XML is a document whose root children are rows and whose grandchildren are
// the cells of each row, keyed by tag name
type XML struct {
	Path string
}

// Load reads the document into a table
func (x XML) Load(ctx context.Context) (*table.Table, error) {
	f, err := open(x.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadXML(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", x.Path)
	}
	return t, nil
}

// ReadXML parses an XML document. Only the direct text of each cell element
// is kept; elements nested below the cell level are ignored.
func ReadXML(r io.Reader) (*table.Table, error) {
	dec := xml.NewDecoder(r)
	cols := newColumnSet()

	depth := 0
	row := -1
	var cell string
	var text strings.Builder
	sawRoot := false

	for {
		tok, err := dec.Token()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.ParseError("XML", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
				sawRoot = true
			case 2:
				row++
				cols.grow(row + 1)
			case 3:
				cell = el.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if depth == 3 {
				text.Write(el)
			}
		case xml.EndElement:
			if depth == 3 {
				if v := strings.TrimSpace(text.String()); v != "" {
					cols.set(cell, row, v)
				} else {
					cols.set(cell, row, nil)
				}
			}
			depth--
		}
	}

	if !sawRoot {
		return nil, errors.ParseError("XML", stderrors.New("document has no root element"))
	}
	return cols.textTable()
}
