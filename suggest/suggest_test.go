package suggest_test

import (
	"testing"

	"github.com/stackform/stackform/suggest"
)

func TestString(t *testing.T) {
	tests := []struct {
		name       string
		want       string
		candidates []string
		suggestion string
	}{
		{"Typo", "q2", []string{"q1", "worker"}, "q1"},
		{"Exact", "worker", []string{"q1", "worker"}, "worker"},
		{"Closest", "load-balancr", []string{"load-balancer", "load-tester"}, "load-balancer"},
		{"TooFar", "database", []string{"q1", "worker"}, ""},
		{"NoCandidates", "q2", nil, ""},
		{"ShortInput", "a", []string{"b"}, "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suggest.String(tt.want, tt.candidates)
			if got != tt.suggestion {
				t.Errorf("String(%q, %v) = %q, want %q", tt.want, tt.candidates, got, tt.suggestion)
			}
		})
	}
}
