package core

import (
	"encoding/json"
	"testing"
	"time"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestRunIDShort tests the short form used for directory names
func TestRunIDShort(t *testing.T) {
	id := NewRunID()
	if len(id.Short()) != 8 {
		t.Errorf("Expected 8 character short id, got %q", id.Short())
	}
	if RunID("abc").Short() != "abc" {
		t.Errorf("Expected short ids to be returned unchanged")
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	valid := NewRunID().String()
	tests := []struct {
		input    string
		hasError bool
	}{
		{valid, false},
		{"", true},
		{"   ", true},
		{"not-a-uuid", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseRunID(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error for input '%s', got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error for input '%s': %v", tt.input, err)
			}
			if result.String() != tt.input {
				t.Errorf("Expected %s, got %s", tt.input, result)
			}
		})
	}
}

// TestTimestampJSON tests timestamp JSON round trip
func TestTimestampJSON(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back Timestamp
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !back.Time().Equal(ts.Time()) {
		t.Errorf("Expected %s, got %s", ts, back)
	}
}
