package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Remera Azul", "remera azul"},
		{"  REMERA   azul ", "remera azul"},
		{"Cámara Fotográfica", "camara fotografica"},
		{"Ñandú", "nandu"},
		{"", ""},
		{"\tcable\nHDMI ", "cable hdmi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDescription(tt.input))
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "779123", NormalizeCode("  779123\n"))
	assert.Equal(t, "AbC", NormalizeCode("AbC"))
	assert.Equal(t, "", NormalizeCode("   "))
}
