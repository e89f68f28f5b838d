package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAllSearchTerms(t *testing.T) {
	expander := NewExpander()

	t.Run("direct expansions and related concepts", func(t *testing.T) {
		terms := expander.GetAllSearchTerms("react")

		assert.Equal(t, "react", terms[0], "original term comes first")
		assert.Contains(t, terms, "reactjs")
		assert.Contains(t, terms, "jsx")
		assert.Contains(t, terms, "frontend")
	})

	t.Run("reverse lookup pulls in the key and siblings", func(t *testing.T) {
		// "k8s" is not a key, only a value under "kubernetes".
		terms := expander.GetAllSearchTerms("k8s")

		assert.Equal(t, "k8s", terms[0])
		assert.Contains(t, terms, "kubernetes")
		assert.Contains(t, terms, "helm")
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		terms := expander.GetAllSearchTerms("  Python ")
		require.NotEmpty(t, terms)
		assert.Equal(t, "python", terms[0])
		assert.Contains(t, terms, "py")
	})

	t.Run("unknown term returns only itself", func(t *testing.T) {
		terms := expander.GetAllSearchTerms("zanzibar")
		assert.Equal(t, []string{"zanzibar"}, terms)
	})

	t.Run("empty term returns nothing", func(t *testing.T) {
		assert.Nil(t, expander.GetAllSearchTerms(""))
		assert.Nil(t, expander.GetAllSearchTerms("   "))
	})

	t.Run("output is stable across calls", func(t *testing.T) {
		first := expander.GetAllSearchTerms("ml")
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, expander.GetAllSearchTerms("ml"))
		}
	})
}

func TestExpandAll(t *testing.T) {
	expander := NewExpander()

	t.Run("unions without duplicates", func(t *testing.T) {
		terms := expander.ExpandAll([]string{"react", "frontend", "react"})

		seen := make(map[string]int)
		for _, term := range terms {
			seen[term]++
		}
		for term, n := range seen {
			assert.Equal(t, 1, n, "duplicate term %q", term)
		}
		assert.Contains(t, terms, "react")
		assert.Contains(t, terms, "frontend")
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, expander.ExpandAll(nil))
	})
}
