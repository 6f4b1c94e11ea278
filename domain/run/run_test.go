package run

import (
	"errors"
	"testing"
	"time"

	"tabprep/domain/core"
	"tabprep/domain/stage"
)

func TestManifestFingerprintIsDeterministic(t *testing.T) {
	config := []byte(`{"source":{"kind":"csv","path":"a.csv"}}`)

	m1 := NewManifest(core.NewRunID(), "p", "csv:a.csv", config)
	m2 := NewManifest(core.NewRunID(), "p", "csv:a.csv", config)

	if m1.Fingerprint != m2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", m1.Fingerprint, m2.Fingerprint)
	}
	if len(m1.Fingerprint.Short()) != 12 {
		t.Errorf("Expected 12 character short fingerprint, got %q", m1.Fingerprint.Short())
	}
	if m1.RunID == m2.RunID {
		t.Errorf("Run IDs should differ, both %s", m1.RunID)
	}

	m3 := NewManifest(core.NewRunID(), "p", "csv:a.csv", []byte(`{}`))
	if m1.Fingerprint == m3.Fingerprint {
		t.Error("Different configurations produced the same fingerprint")
	}
}

func TestManifestValidate(t *testing.T) {
	m := NewManifest(core.NewRunID(), "p", "csv:a.csv", []byte("x"))
	if err := m.Validate(); err != nil {
		t.Errorf("Valid manifest failed validation: %v", err)
	}

	m.Source = ""
	if err := m.Validate(); err == nil {
		t.Error("Expected error for empty source")
	}

	m = &Manifest{Source: "csv:a.csv", Fingerprint: "abc"}
	if err := m.Validate(); err == nil {
		t.Error("Expected error for empty run id")
	}

	m = &Manifest{RunID: "run-1", Source: "csv:a.csv", Fingerprint: "abc"}
	if err := m.Validate(); err == nil {
		t.Error("Expected error for a run id that is not a UUID")
	}
}

func TestSummaryFinish(t *testing.T) {
	s := NewSummary("p")
	s.Record(stage.Import, stage.StatusOK, 2*time.Millisecond)
	s.Record(stage.Profile, stage.StatusOK, 3*time.Millisecond)
	s.Finish(nil)
	if s.Status != StatusSucceeded {
		t.Errorf("Expected %s, got %s", StatusSucceeded, s.Status)
	}
	if s.Duration() != 5*time.Millisecond {
		t.Errorf("Expected 5ms total, got %s", s.Duration())
	}

	s = NewSummary("p")
	s.Exports = append(s.Exports, ExportOutcome{Kind: "csv", OK: true}, ExportOutcome{Kind: "aws_s3", OK: false})
	s.Finish(nil)
	if s.Status != StatusPartial {
		t.Errorf("Expected %s, got %s", StatusPartial, s.Status)
	}

	s = NewSummary("p")
	s.Finish(errors.New("import failed"))
	if s.Status != StatusFailed || s.Error != "import failed" {
		t.Errorf("Expected failed run with error, got %s %q", s.Status, s.Error)
	}
}
