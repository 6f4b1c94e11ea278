package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tabprep/internal/errors"
	"tabprep/internal/exporter"
	"tabprep/internal/importer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceInfersKind(t *testing.T) {
	var f sourceFlags

	src, err := f.source("data/sales.tsv")
	require.NoError(t, err)
	assert.Equal(t, importer.KindTXT, src.Kind)
	assert.Equal(t, "\t", src.Delimiter)

	src, err = f.source("data/sales.xlsx")
	require.NoError(t, err)
	assert.Equal(t, importer.KindExcel, src.Kind)

	_, err = f.source("data/sales.dat")
	assert.True(t, errors.HasCode(err, errors.CodeUnsupportedFormat))
}

func TestSourceFlagsWin(t *testing.T) {
	f := sourceFlags{kind: "txt", delimiter: "|", sheet: "s"}
	src, err := f.source("data/sales.dat")
	require.NoError(t, err)
	assert.Equal(t, importer.KindTXT, src.Kind)
	assert.Equal(t, "|", src.Delimiter)
	assert.Equal(t, "data/sales.dat", src.Path)
}

func TestDestinationFromFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: aws_s3\ns3:\n  bucket: reports\n  key: out.csv\n"), 0o644))

	d, err := (&destFlags{destConfig: path}).destination()
	require.NoError(t, err)
	assert.Equal(t, exporter.KindS3, d.Kind)
	require.NotNil(t, d.S3)
	assert.Equal(t, "reports", d.S3.Bucket)

	d, err = (&destFlags{destConfig: path, kind: "csv", path: "x.csv"}).destination()
	require.NoError(t, err)
	assert.Equal(t, exporter.KindCSV, d.Kind)
	assert.Equal(t, "x.csv", d.Path)
}

func TestDestinationErrors(t *testing.T) {
	_, err := (&destFlags{}).destination()
	assert.True(t, errors.HasCode(err, errors.CodeConfigInvalid))

	_, err = (&destFlags{destConfig: filepath.Join(t.TempDir(), "missing.yaml")}).destination()
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("kind: csv\nbogus: 1\n"), 0o644))
	_, err = (&destFlags{destConfig: bad}).destination()
	assert.True(t, errors.HasCode(err, errors.CodeConfigInvalid))
}

func TestIgnoreCancel(t *testing.T) {
	assert.NoError(t, ignoreCancel(context.Canceled))
	assert.NoError(t, ignoreCancel(nil))
	assert.Error(t, ignoreCancel(errors.InvalidInput("x")))
}

func TestExportKindsListsObjectStores(t *testing.T) {
	kinds := exportKinds()
	assert.Contains(t, kinds, "parquet|sql|aws_s3")
	assert.True(t, strings.HasPrefix(kinds, "csv|"))
}
