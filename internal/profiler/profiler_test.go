package profiler

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"tabprep/domain/table"
	"tabprep/internal/errors"
	"tabprep/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() *table.Table {
	return table.MustNew(
		table.NewNumeric("age", []float64{31, math.NaN(), math.NaN(), 45, 20}),
		table.NewCategorical("city", []*string{table.Str("Oslo"), table.Str("Lima"), table.Str("Lima"), table.Str("Oslo"), nil}),
		table.NewNumeric("score", []float64{1, 2, 3, 4, 5}),
	)
}

func TestProfileReport(t *testing.T) {
	report := New(logging.Discard()).Profile(fixture())

	assert.Equal(t, 5, report.TotalRows)
	assert.Equal(t, 3, report.TotalColumns)
	assert.Equal(t, []string{"age", "score"}, report.NumericColumns)
	assert.Equal(t, []string{"city"}, report.CategoricalColumns)
	assert.Equal(t, map[string]int{"age": 2, "city": 1, "score": 0}, report.NullCounts)
	assert.Equal(t, []string{"age", "city"}, report.ColumnsWithNulls)
	require.Len(t, report.Columns, 3)
}

func TestProfileColumnStats(t *testing.T) {
	report := New(logging.Discard()).Profile(fixture())

	age := report.Columns[0]
	require.NotNil(t, age.NumericStats)
	assert.Equal(t, 20.0, age.NumericStats.Min)
	assert.Equal(t, 45.0, age.NumericStats.Max)
	assert.Equal(t, 31.0, age.NumericStats.Median)
	assert.InDelta(t, 32.0, age.NumericStats.Mean, 1e-9)
	assert.InDelta(t, 12.5299, age.NumericStats.StdDev, 1e-3)
	assert.Equal(t, 2, age.MissingStats.ConsecutiveMissing)
	assert.InDelta(t, 0.4, age.MissingStats.MissingRate, 1e-12)

	city := report.Columns[1]
	require.NotNil(t, city.CategoricalStats)
	// Lima and Oslo both appear twice; the smaller value wins
	assert.Equal(t, "Lima", city.CategoricalStats.Mode)
	assert.Equal(t, 2, city.CategoricalStats.ModeFrequency)
	assert.Equal(t, 2, city.UniqueCount)
}

func TestProfileDoesNotMutate(t *testing.T) {
	tbl := fixture()
	before := tbl.Records()
	New(logging.Discard()).Profile(tbl)
	assert.Equal(t, before, tbl.Records())
}

func TestProfileEmptyTable(t *testing.T) {
	report := New(logging.Discard()).Profile(table.MustNew())
	assert.Equal(t, 0, report.TotalRows)
	assert.Empty(t, report.ColumnsWithNulls)
	assert.NotNil(t, report.NullCounts)
}

func TestProfileFile(t *testing.T) {
	p := New(logging.Discard())
	ctx := context.Background()
	dir := t.TempDir()

	good := filepath.Join(dir, "good.csv")
	require.NoError(t, os.WriteFile(good, []byte("a,b\n1,x\n,y\n"), 0o644))
	res := p.ProfileFile(ctx, good)
	require.True(t, res.OK())
	assert.Equal(t, []string{"a"}, res.Report.ColumnsWithNulls)

	res = p.ProfileFile(ctx, filepath.Join(dir, "missing.csv"))
	require.False(t, res.OK())
	assert.Equal(t, errors.CodeNotFound, res.Err.Code)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("a\n\"unterminated\n"), 0o644))
	res = p.ProfileFile(ctx, bad)
	require.NotNil(t, res.Err)
	assert.Equal(t, errors.CodeParseError, res.Err.Code)
}

func TestFrequencies(t *testing.T) {
	col := table.NewCategoricalFromStrings("c", []string{"b", "a", "c", "b", "a", ""}, "")
	counts := Frequencies(col)

	require.Len(t, counts, 3)
	assert.Equal(t, "a", counts[0].Value)
	assert.Equal(t, "b", counts[1].Value)
	assert.Equal(t, "c", counts[2].Value)
	assert.InDelta(t, 0.4, counts[0].Ratio, 1e-12)
}
