package cache

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
		{"lowercase", "HOW MANY CARDS?", "how many cards?"},
		{"trim", "  How many cards?  ", "how many cards?"},
		{"collapse internal whitespace", "How  many\tcards?", "how many cards?"},
		{"already normal", "how many cards?", "how many cards?"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestKeyCollidesAcrossCaseAndSpacing(t *testing.T) {
	base := Key(EndpointQA, "monopoly", "How many cards?")

	assert.Equal(t, base, Key(EndpointQA, "monopoly", "HOW MANY CARDS?"))
	assert.Equal(t, base, Key(EndpointQA, "monopoly", "  How many cards?  "))
}

func TestKeyIsDeterministic(t *testing.T) {
	a := Key(EndpointExplain, "catan", "longest road")
	b := Key(EndpointExplain, "catan", "longest road")
	assert.Equal(t, a, b)
}

func TestKeySeparatesNamespaces(t *testing.T) {
	qa := Key(EndpointQA, "monopoly", "setup")
	setup := Key(EndpointSetup, "monopoly", "setup")
	otherGame := Key(EndpointQA, "catan", "setup")

	assert.NotEqual(t, qa, setup)
	assert.NotEqual(t, qa, otherGame)
}
