package endpoint

import (
	"strings"
	"testing"
)

func TestNewRequestID(t *testing.T) {
	id := NewRequestID()

	if !strings.HasPrefix(id, "req_") {
		t.Errorf("ID = %q, want req_ prefix", id)
	}
	if len(id) != len("req_")+24 {
		t.Errorf("len(ID) = %d, want %d", len(id), len("req_")+24)
	}
	if !ValidateRequestID(id) {
		t.Errorf("ValidateRequestID(%q) = false, want true", id)
	}
}

func TestNewRequestIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewRequestID()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %q", id)
		}
		seen[id] = true
	}
}

func TestValidateRequestID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"req_abcdefghijklmnopqrstuvwx", true},
		{"req_ABC123defGHI456jklMNO789", true},
		{"", false},
		{"req_", false},
		{"req_short", false},
		{"req_abcdefghijklmnopqrstuvwxyz", false}, // too long
		{"resp_abcdefghijklmnopqrstuvw", false},   // wrong prefix
		{"req_abcdefghijklmnopqrst-vwx", false},   // invalid character
	}

	for _, tt := range tests {
		if got := ValidateRequestID(tt.id); got != tt.want {
			t.Errorf("ValidateRequestID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
