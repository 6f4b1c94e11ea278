package standardizer

import (
	"math"
	"testing"

	"tabprep/domain/standardization"
	"tabprep/domain/table"
	"tabprep/internal/errors"
	"tabprep/internal/logging"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMaxScenario(t *testing.T) {
	tbl := table.MustNew(table.NewNumeric("x", []float64{1, 2, 3, 4, 5, 100}))
	out, err := Standardize(tbl, "min-max")
	require.NoError(t, err)

	x, _ := out.Column("x")
	assert.Equal(t, 0.0, x.Floats[0])
	assert.Equal(t, 1.0, x.Floats[5])
	assert.InDelta(t, 2.0/99.0, x.Floats[2], 1e-12)
}

func TestZScoreUsesSampleDeviation(t *testing.T) {
	tbl := table.MustNew(table.NewNumeric("x", []float64{2, 4, 4, 4, 5, 5, 7, 9}))
	_, err := Standardize(tbl, "z-score")
	require.NoError(t, err)

	x, _ := tbl.Column("x")
	mean, _ := stats.Mean(x.Floats)
	std, _ := stats.StandardDeviationSample(x.Floats)
	assert.InDelta(t, 0, mean, 1e-12)
	assert.InDelta(t, 1, std, 1e-12)
	// mean 5, sample std sqrt(32/7)
	assert.InDelta(t, -3/math.Sqrt(32.0/7.0), x.Floats[0], 1e-12)
}

func TestZScoreIsIdempotent(t *testing.T) {
	tbl := table.MustNew(table.NewNumeric("x", []float64{3, 1, 4, 1, 5, 9, 2, 6}))
	_, err := Standardize(tbl, "z-score")
	require.NoError(t, err)
	x, _ := tbl.Column("x")
	once := append([]float64(nil), x.Floats...)

	_, err = Standardize(tbl, "z-score")
	require.NoError(t, err)
	assert.InDeltaSlice(t, once, x.Floats, 1e-9)
}

func TestMinMaxIsNoOpOnUnitRange(t *testing.T) {
	vals := []float64{0, 0.25, 1, 0.5}
	tbl := table.MustNew(table.NewNumeric("x", append([]float64(nil), vals...)))
	_, err := Standardize(tbl, "min-max")
	require.NoError(t, err)
	x, _ := tbl.Column("x")
	assert.InDeltaSlice(t, vals, x.Floats, 1e-12)
}

func TestMissingValuesExcludedAndKept(t *testing.T) {
	tbl := table.MustNew(table.NewNumeric("x", []float64{0, math.NaN(), 10}))
	_, err := Standardize(tbl, "min-max")
	require.NoError(t, err)
	x, _ := tbl.Column("x")
	assert.Equal(t, 0.0, x.Floats[0])
	assert.True(t, math.IsNaN(x.Floats[1]))
	assert.Equal(t, 1.0, x.Floats[2])
}

func TestCategoricalUntouched(t *testing.T) {
	tbl := table.MustNew(
		table.NewNumeric("x", []float64{1, 2}),
		table.NewCategorical("c", []*string{table.Str("10"), table.Str("20")}),
	)
	_, err := Standardize(tbl, "z-score")
	require.NoError(t, err)
	assert.Equal(t, "10", tbl.Cell(0, 1))
}

func TestErrors(t *testing.T) {
	onlyText := table.MustNew(table.NewCategorical("c", []*string{table.Str("a")}))
	_, err := Standardize(onlyText, "z-score")
	assert.Equal(t, errors.CodeNoNumericColumns, errors.GetCode(err))

	nums := table.MustNew(table.NewNumeric("x", []float64{1, 2}))
	_, err = Standardize(nums, "log")
	assert.Equal(t, errors.CodeUnsupportedMode, errors.GetCode(err))
}

func TestDegeneratePolicy(t *testing.T) {
	build := func() *table.Table {
		return table.MustNew(
			table.NewNumeric("const", []float64{5, 5, 5}),
			table.NewNumeric("x", []float64{1, 2, 3}),
			table.NewNumeric("empty", []float64{math.NaN(), math.NaN(), math.NaN()}),
		)
	}

	tests := []struct {
		name string
		mode standardization.Mode
	}{
		{"z-score", standardization.ModeZScore},
		{"min-max", standardization.ModeMinMax},
	}
	for _, tt := range tests {
		t.Run(tt.name+" skip", func(t *testing.T) {
			tbl := build()
			res, err := New(logging.Discard(), standardization.PolicySkip).Apply(tbl, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, []string{"x"}, res.Scaled)
			require.Len(t, res.Skipped, 2)
			assert.Equal(t, "const", res.Skipped[0].Column)
			assert.Equal(t, "empty", res.Skipped[1].Column)
			c, _ := tbl.Column("const")
			assert.Equal(t, []float64{5, 5, 5}, c.Floats)
		})

		t.Run(tt.name+" fail", func(t *testing.T) {
			tbl := build()
			_, err := New(logging.Discard(), standardization.PolicyFail).Apply(tbl, tt.mode)
			assert.Equal(t, errors.CodeDegenerateColumn, errors.GetCode(err))
			x, _ := tbl.Column("x")
			assert.Equal(t, []float64{1, 2, 3}, x.Floats, "nothing is modified on failure")
		})
	}
}

func TestSingleValueZScoreIsDegenerate(t *testing.T) {
	tbl := table.MustNew(table.NewNumeric("x", []float64{7}))
	res, err := New(logging.Discard(), "").Apply(tbl, standardization.ModeZScore)
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "fewer than two values", res.Skipped[0].Reason)
}

func TestInfiniteColumnIsSkipped(t *testing.T) {
	for _, mode := range []standardization.Mode{standardization.ModeZScore, standardization.ModeMinMax} {
		t.Run(string(mode), func(t *testing.T) {
			tbl := table.MustNew(
				table.NewNumeric("x", []float64{1, 2, math.Inf(1), math.Inf(1)}),
				table.NewNumeric("y", []float64{1, 2, 3, 4}),
			)
			res, err := New(logging.Discard(), standardization.PolicySkip).Apply(tbl, mode)
			require.NoError(t, err)

			assert.Equal(t, []string{"y"}, res.Scaled)
			require.Len(t, res.Skipped, 1)
			assert.Equal(t, "x", res.Skipped[0].Column)

			x, _ := tbl.Column("x")
			assert.Equal(t, 0, x.NullCount())
		})
	}
}
