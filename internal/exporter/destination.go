package exporter

import (
	"strings"

	"tabprep/adapters/objectstore"
	"tabprep/adapters/sqldb"
)

// Kind names an export destination
type Kind string

const (
	KindCSV     Kind = "csv"
	KindTXT     Kind = "txt"
	KindExcel   Kind = "excel"
	KindJSON    Kind = "json"
	KindParquet Kind = "parquet"
	KindSQL     Kind = "sql"
	KindS3      Kind = "aws_s3"
	KindAzure   Kind = "azure_blob"
	KindGCS     Kind = "gcp_storage"
)

// default file names per file kind
var defaultPaths = map[Kind]string{
	KindCSV:     "exported_data.csv",
	KindTXT:     "exported_data.txt",
	KindExcel:   "exported_data.xlsx",
	KindJSON:    "exported_data.json",
	KindParquet: "exported_data.parquet",
}

// DefaultTextDelimiter separates fields in txt exports when none is given
const DefaultTextDelimiter = "\t"

// Destination says where and how a table is exported. Only the fields that
// belong to Kind are read.
type Destination struct {
	Kind      Kind   `yaml:"kind" json:"kind" validate:"required"`
	Path      string `yaml:"path,omitempty" json:"path,omitempty"`
	Delimiter string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	Sheet     string `yaml:"sheet,omitempty" json:"sheet,omitempty"`

	Table      string            `yaml:"table,omitempty" json:"table,omitempty"`
	Connection *sqldb.Connection `yaml:"connection,omitempty" json:"connection,omitempty"`

	S3    *objectstore.S3Options    `yaml:"s3,omitempty" json:"s3,omitempty"`
	Azure *objectstore.AzureOptions `yaml:"azure,omitempty" json:"azure,omitempty"`
	GCS   *objectstore.GCSOptions   `yaml:"gcs,omitempty" json:"gcs,omitempty"`
}

// Kinds lists every supported destination kind
func Kinds() []Kind {
	return []Kind{KindCSV, KindTXT, KindExcel, KindJSON, KindParquet, KindSQL, KindS3, KindAzure, KindGCS}
}

// Describe returns a short label for logs
func (d Destination) Describe() string {
	switch d.kind() {
	case KindSQL:
		if d.Connection != nil {
			return string(d.Connection.Dialect) + ":" + d.Table
		}
		return "sql:" + d.Table
	case KindS3:
		if d.S3 != nil {
			return "s3://" + d.S3.Bucket + "/" + d.S3.ObjectKey()
		}
	case KindAzure:
		if d.Azure != nil {
			return "azure://" + d.Azure.Container + "/" + d.Azure.ObjectKey()
		}
	case KindGCS:
		if d.GCS != nil {
			return "gs://" + d.GCS.Bucket + "/" + d.GCS.ObjectKey()
		}
	}
	if path := d.path(); path != "" {
		return path
	}
	return string(d.Kind)
}

func (d Destination) kind() Kind {
	return Kind(strings.ToLower(strings.TrimSpace(string(d.Kind))))
}

// path returns the file path, falling back to the kind's default
func (d Destination) path() string {
	if d.Path != "" {
		return d.Path
	}
	return defaultPaths[d.kind()]
}
