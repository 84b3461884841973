package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain ascii", "hello world", "hello world"},
		{"uppercase folded", "HELLO World", "hello world"},
		{"czech diacritics", "Předplatné", "predplatne"},
		{"mixed diacritics", "Výpis z účtu – Česká spořitelna", "vypis z uctu – ceska sporitelna"},
		{"german umlauts", "Kündigung ÜBER", "kundigung uber"},
		{"whitespace collapse", "a \t b\n\nc", "a b c"},
		{"leading trailing", "  padded  ", "padded"},
		{"punctuation kept", "Total: $20/month!!!", "total: $20/month!!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeEquivalence(t *testing.T) {
	assert.Equal(t, Normalize("predplatne"), Normalize("Předplatné"))
	assert.Equal(t, Normalize("clenstvi"), Normalize("Členství"))
	assert.Equal(t, Normalize("uctenka"), Normalize("Účtenka"))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Předplatné se obnoví 1. 12. 2025",
		"POLICIE ČESKÉ REPUBLIKY\nKrajské ředitelství",
		"   only\twhitespace\r\nhere   ",
		"Ihre Rechnung über 9,99 €",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
