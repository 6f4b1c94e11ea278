// Package standardization holds the modes, policies and results of numeric rescaling.
package standardization

import (
	"tabprep/domain/table"
	"tabprep/internal/errors"
)

// Mode selects the rescaling formula
type Mode string

const (
	ModeZScore Mode = "z-score"
	ModeMinMax Mode = "min-max"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeZScore, ModeMinMax:
		return Mode(s), nil
	}
	return "", errors.UnsupportedMode(s)
}

// DegeneratePolicy decides what happens to a column that cannot be rescaled
// (zero spread, or too few values)
type DegeneratePolicy string

const (
	PolicySkip DegeneratePolicy = "skip"
	PolicyFail DegeneratePolicy = "fail"
)

// ParsePolicy validates a policy name. Empty selects PolicySkip.
func ParsePolicy(s string) (DegeneratePolicy, error) {
	switch DegeneratePolicy(s) {
	case "":
		return PolicySkip, nil
	case PolicySkip, PolicyFail:
		return DegeneratePolicy(s), nil
	}
	return "", errors.Newf(errors.CodeInvalidInput, "unknown degenerate policy %q", s)
}

// Skip is a column left unchanged and why
type Skip struct {
	Column string `json:"column"`
	Reason string `json:"reason"`
}

// Result is the outcome of one standardization pass
type Result struct {
	Table   *table.Table `json:"-"`
	Mode    Mode         `json:"mode"`
	Scaled  []string     `json:"scaled"`
	Skipped []Skip       `json:"skipped"`
}
