package query

import (
	"sort"
	"strings"
)

// Expander broadens a raw search term into its synonym and related-concept
// sets. Lookups run against the embedded vocabulary tables; no ranking is
// applied and results keep set insertion order.
type Expander struct {
	expansions map[string][]string
	related    map[string][]string
}

// NewExpander creates an expander backed by the embedded vocabulary.
func NewExpander() *Expander {
	v := mustVocabulary()
	return &Expander{expansions: v.Expansions, related: v.Related}
}

// GetAllSearchTerms returns the union of the original term, its direct
// expansions, its related concepts, and reverse lookups: if the term is
// itself a value in some other key's expansion list, that key and its
// sibling expansions are included too.
func (e *Expander) GetAllSearchTerms(term string) []string {
	lower := strings.ToLower(strings.TrimSpace(term))
	if lower == "" {
		return nil
	}

	terms := make([]string, 0, 8)
	seen := make(map[string]struct{})
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}

	add(lower)
	for _, t := range e.expansions[lower] {
		add(t)
	}
	for _, t := range e.related[lower] {
		add(t)
	}

	// Reverse lookup: term appears inside another key's expansion list.
	// Keys are walked in sorted order so output is stable across runs.
	for _, key := range e.sortedExpansionKeys() {
		values := e.expansions[key]
		for _, v := range values {
			if v == lower {
				add(key)
				for _, sibling := range values {
					add(sibling)
				}
				break
			}
		}
	}

	return terms
}

func (e *Expander) sortedExpansionKeys() []string {
	keys := make([]string, 0, len(e.expansions))
	for k := range e.expansions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ExpandAll applies GetAllSearchTerms to every term and unions the output,
// preserving first-seen order.
func (e *Expander) ExpandAll(terms []string) []string {
	expanded := make([]string, 0, len(terms)*4)
	seen := make(map[string]struct{})
	for _, term := range terms {
		for _, t := range e.GetAllSearchTerms(term) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			expanded = append(expanded, t)
		}
	}
	return expanded
}
