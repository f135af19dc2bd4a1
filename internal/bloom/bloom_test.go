package bloom_test

import (
	"testing"

	"github.com/cognify-app/cognify-backend/internal/bloom"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    bloom.Level
		wantErr bool
	}{
		{"lowercase", "applying", bloom.Applying, false},
		{"mixed case", "Remembering", bloom.Remembering, false},
		{"padded", "  creating ", bloom.Creating, false},
		{"unknown", "memorizing", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bloom.Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevels_OrderAndIndex(t *testing.T) {
	levels := bloom.Levels()
	if len(levels) != 6 {
		t.Fatalf("Levels() returned %d levels, want 6", len(levels))
	}
	if levels[0] != bloom.Remembering || levels[5] != bloom.Creating {
		t.Errorf("Levels() order wrong: %v", levels)
	}
	for i, l := range levels {
		if l.Index() != i {
			t.Errorf("%s.Index() = %d, want %d", l, l.Index(), i)
		}
	}
	if bloom.Level("unknown").Index() != -1 {
		t.Error("unknown level should have index -1")
	}
}
