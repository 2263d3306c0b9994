package utils

import "testing"

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.005, 1.01},
		{125, 125},
		{-3.456, -3.46},
		{183.675, 183.68},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPercentChange(t *testing.T) {
	if got := PercentChange(110, 100); got != 10 {
		t.Errorf("PercentChange(110, 100) = %v, want 10", got)
	}
	if got := PercentChange(95, 100); got != -5 {
		t.Errorf("PercentChange(95, 100) = %v, want -5", got)
	}
	if got := PercentChange(5, 0); got != 0 {
		t.Errorf("PercentChange(5, 0) = %v, want 0", got)
	}
}

func TestFormatPeso(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "₱0.00"},
		{7.5, "₱7.50"},
		{1234.5, "₱1,234.50"},
		{1234567.891, "₱1,234,567.89"},
		{-42, "-₱42.00"},
	}
	for _, tt := range tests {
		if got := FormatPeso(tt.in); got != tt.want {
			t.Errorf("FormatPeso(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
