package grasp

import "testing"

func TestDropPolicy(t *testing.T) {
	p := DefaultDropPolicy()
	tests := []struct {
		z    float64
		want bool
	}{
		{0.5, false},
		{0.2000001, false},
		{0.2, false},
		{0.1999999, true},
		{0.05, true},
		{-1, true},
	}
	for _, tt := range tests {
		if got := p.Dropped(tt.z); got != tt.want {
			t.Errorf("Dropped(%v) = %v, want %v", tt.z, got, tt.want)
		}
	}
}
