package run

import (
	"tabprep/domain/core"
	"tabprep/internal/errors"
)

// Manifest identifies a run and the configuration it ran with. Two runs with
// the same configuration share a fingerprint.
type Manifest struct {
	RunID       core.RunID     `json:"run_id"`
	Name        string         `json:"name"`
	Source      string         `json:"source"`
	Fingerprint core.Hash      `json:"fingerprint"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// NewManifest creates a manifest; config is the canonical encoding of the
// pipeline configuration
func NewManifest(runID core.RunID, name, source string, config []byte) *Manifest {
	return &Manifest{
		RunID:       runID,
		Name:        name,
		Source:      source,
		Fingerprint: core.NewHash(config),
		CreatedAt:   core.Now(),
	}
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if _, err := core.ParseRunID(m.RunID.String()); err != nil {
		return errors.Wrap(errors.WithCode(errors.CodeInvalidInput, err), "run manifest")
	}
	if m.Source == "" {
		return errors.InvalidInput("run manifest: source cannot be empty")
	}
	if m.Fingerprint.IsEmpty() {
		return errors.InvalidInput("run manifest: fingerprint cannot be empty")
	}
	return nil
}
