package sdr_test

import (
	"testing"

	"github.com/fwojciec/sdr"
	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short text unchanged", "oi", 10, "oi"},
		{"exact length unchanged", "abc", 3, "abc"},
		{"cut with ellipsis", "Rastreamento", 5, "Rastr…"},
		{"accents count once", "ação rápida", 4, "ação…"},
		{"combining marks stay whole", "ééé", 2, "éé…"},
		{"zero limit", "oi", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sdr.Preview(tt.in, tt.n))
		})
	}
}
