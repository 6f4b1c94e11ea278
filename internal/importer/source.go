package importer

import (
	"strings"

	"tabprep/adapters/file"
	"tabprep/adapters/sqldb"
	"tabprep/internal/errors"
	"tabprep/ports"
)

// Kind is the format tag of a source
type Kind string

const (
	KindCSV     Kind = "csv"
	KindTXT     Kind = "txt"
	KindExcel   Kind = "excel"
	KindJSON    Kind = "json"
	KindXML     Kind = "xml"
	KindParquet Kind = "parquet"
	KindSQL     Kind = "sql"
)

// Source selects where a table comes from. Only the fields for Kind are read:
// Path for files, Delimiter for txt, Encoding for csv and txt, Sheet for
// excel, Query and Connection for sql.
type Source struct {
	Kind       Kind              `yaml:"kind" json:"kind" validate:"required"`
	Path       string            `yaml:"path" json:"path,omitempty"`
	Delimiter  string            `yaml:"delimiter" json:"delimiter,omitempty"`
	Encoding   string            `yaml:"encoding" json:"encoding,omitempty"`
	Sheet      string            `yaml:"sheet" json:"sheet,omitempty"`
	Query      string            `yaml:"query" json:"query,omitempty"`
	Connection *sqldb.Connection `yaml:"connection" json:"connection,omitempty"`
}

// Describe returns a short label for logs
func (s Source) Describe() string {
	if s.Kind == KindSQL {
		dialect := "unknown"
		if s.Connection != nil {
			dialect = string(s.Connection.Dialect)
		}
		return "sql:" + dialect
	}
	return string(s.Kind) + ":" + s.Path
}

// Resolve maps a source to the adapter that reads it
func Resolve(src Source) (ports.TableSource, error) {
	kind := Kind(strings.ToLower(string(src.Kind)))
	if isFileKind(kind) && strings.TrimSpace(src.Path) == "" {
		return nil, errors.Newf(errors.CodeInvalidInput, "%s source requires a path", kind)
	}

	switch kind {
	case KindCSV:
		return file.Delimited{Path: src.Path, Delimiter: ",", Encoding: src.Encoding}, nil
	case KindTXT:
		return file.Delimited{Path: src.Path, Delimiter: src.Delimiter, Encoding: src.Encoding}, nil
	case KindExcel:
		return file.Excel{Path: src.Path, Sheet: src.Sheet}, nil
	case KindJSON:
		return file.JSON{Path: src.Path}, nil
	case KindXML:
		return file.XML{Path: src.Path}, nil
	case KindParquet:
		return file.Parquet{Path: src.Path}, nil
	case KindSQL:
		if src.Connection == nil {
			return nil, errors.InvalidInput("sql source requires a connection")
		}
		return sqldb.Query{Conn: *src.Connection, SQL: src.Query}, nil
	}
	return nil, errors.UnsupportedFormat(string(src.Kind))
}

func isFileKind(k Kind) bool {
	switch k {
	case KindCSV, KindTXT, KindExcel, KindJSON, KindXML, KindParquet:
		return true
	}
	return false
}
