package phone

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		cc   string
		want string
	}{
		{"9876543210", "91", "+919876543210"},
		{"919876543210", "91", "+919876543210"},
		{"+14155550100", "91", "+14155550100"},
		{"98765 43210", "", "+919876543210"},
		{"(415) 555-0100", "1", "+14155550100"},
		{"415.555.0100", "+1", "+14155550100"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.cc)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q, %q) = %q, want %q", tt.raw, tt.cc, got, tt.want)
			}
		})
	}
}

func TestNormalize_Empty(t *testing.T) {
	for _, raw := range []string{"", "  ", "+", "( )"} {
		if _, err := Normalize(raw, "91"); !errors.Is(err, ErrEmpty) {
			t.Errorf("Normalize(%q) err = %v, want ErrEmpty", raw, err)
		}
	}
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"+919876543210": "+********3210",
		"+1234":         "+1234",
		"5550100":       "***0100",
		"":              "",
	}
	for in, want := range tests {
		if got := Mask(in); got != want {
			t.Errorf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}
