// Package standardizer rescales numeric columns by z-score or min-max.
package standardizer

import (
	"log/slog"
	"math"

	"tabprep/domain/standardization"
	"tabprep/domain/table"
	"tabprep/internal/errors"
	"tabprep/internal/logging"

	"github.com/montanaflynn/stats"
)

// Standardizer rescales numeric columns in place
type Standardizer struct {
	logger *slog.Logger
	policy standardization.DegeneratePolicy
}

// New creates a standardizer. An empty policy means skip.
func New(logger *slog.Logger, policy standardization.DegeneratePolicy) *Standardizer {
	if policy == "" {
		policy = standardization.PolicySkip
	}
	return &Standardizer{logger: logging.Component(logger, "standardizer"), policy: policy}
}

// Standardize rescales t with the skip policy and returns it
func Standardize(t *table.Table, mode string) (*table.Table, error) {
	res, err := New(logging.Discard(), standardization.PolicySkip).Apply(t, standardization.Mode(mode))
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// scaling is the affine map v -> (v - shift) / scale for one column
type scaling struct {
	col   *table.Column
	shift float64
	scale float64
}

// Apply rescales every numeric column. Missing values are left out of the
// statistics and stay missing; categorical columns are untouched. Columns
// that cannot be rescaled are skipped or fail the call, per the policy; on
// failure nothing has been modified.
func (s *Standardizer) Apply(t *table.Table, mode standardization.Mode) (standardization.Result, error) {
	numeric := t.NumericColumns()
	if len(numeric) == 0 {
		return standardization.Result{}, errors.NoNumericColumns()
	}
	if _, err := standardization.ParseMode(string(mode)); err != nil {
		return standardization.Result{}, err
	}

	result := standardization.Result{
		Table:   t,
		Mode:    mode,
		Scaled:  []string{},
		Skipped: []standardization.Skip{},
	}

	plans := make([]scaling, 0, len(numeric))
	for _, col := range numeric {
		plan, reason := plan(col, mode)
		if reason != "" {
			if s.policy == standardization.PolicyFail {
				return standardization.Result{}, errors.DegenerateColumn(col.Name, reason)
			}
			result.Skipped = append(result.Skipped, standardization.Skip{Column: col.Name, Reason: reason})
			continue
		}
		plans = append(plans, plan)
	}

	for _, p := range plans {
		for i, v := range p.col.Floats {
			if !math.IsNaN(v) {
				p.col.Floats[i] = (v - p.shift) / p.scale
			}
		}
		result.Scaled = append(result.Scaled, p.col.Name)
	}

	if len(result.Skipped) > 0 {
		s.logger.Warn("columns left unscaled", "mode", mode, "skipped", result.Skipped)
	}
	s.logger.Info("standardization complete", "mode", mode, "scaled", result.Scaled)
	return result, nil
}

// plan computes the scaling for col, or the reason it has none
func plan(col *table.Column, mode standardization.Mode) (scaling, string) {
	values := col.NonNullFloats()
	if len(values) == 0 {
		return scaling{}, "no values"
	}

	switch mode {
	case standardization.ModeZScore:
		if len(values) < 2 {
			return scaling{}, "fewer than two values"
		}
		mean, _ := stats.Mean(values)
		std, _ := stats.StandardDeviationSample(values)
		if math.IsInf(mean, 0) || math.IsNaN(mean) || math.IsInf(std, 0) {
			return scaling{}, "non-finite statistics"
		}
		if std == 0 || math.IsNaN(std) {
			return scaling{}, "zero standard deviation"
		}
		return scaling{col: col, shift: mean, scale: std}, ""
	default:
		lo, _ := stats.Min(values)
		hi, _ := stats.Max(values)
		if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return scaling{}, "non-finite statistics"
		}
		if hi == lo {
			return scaling{}, "zero range"
		}
		return scaling{col: col, shift: lo, scale: hi - lo}, ""
	}
}
