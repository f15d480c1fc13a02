package core

import (
	"testing"
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
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseSessionID tests session ID parsing
func TestParseSessionID(t *testing.T) {
	fresh := NewSessionID()

	tests := []struct {
		input    string
		expected SessionID
		hasError bool
	}{
		{fresh.String(), fresh, false},
		{"  " + fresh.String() + " ", fresh, false},
		{"6F9619FF-8B86-D011-B42D-00CF4FC964FF", SessionID("6f9619ff-8b86-d011-b42d-00cf4fc964ff"), false},
		{"", "", true},
		{"   ", "", true},
		{"../../etc/passwd", "", true},
	}

	for _, tt := range tests {
		result, err := ParseSessionID(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("Expected error for input '%s', got nil", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for input '%s': %v", tt.input, err)
		}
		if result != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, result)
		}
	}
}
