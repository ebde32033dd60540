package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "Pão Francês", expected: "pao frances"},
		{in: "  Bacon   Defumado ", expected: "bacon defumado"},
		{in: "LINGUIÇA Toscana", expected: "linguica toscana"},
		{in: "queijo", expected: "queijo"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, Fold(test.in))
		// folding twice must not change the result
		require.Equal(t, test.expected, Fold(Fold(test.in)))
	}
}

func TestContainsFold(t *testing.T) {
	require.True(t, ContainsFold("Pão Francês Tradicional 500g", "pao"))
	require.True(t, ContainsFold("Bacon Defumado 500g", "Bacon"))
	require.False(t, ContainsFold("Presunto Cozido", "bacon"))
}

func TestSearchTerm(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "Bacon kg", expected: "Bacon"},
		{in: "Frango g", expected: "Frango"},
		{in: "Morango bandeja", expected: "Morango"},
		{in: "Queijo Minas", expected: "Queijo Minas"},
		// "kg" inside a word stays untouched
		{in: "Magkg", expected: "Magkg"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, SearchTerm(test.in))
	}
}
