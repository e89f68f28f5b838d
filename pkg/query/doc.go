// Package query turns free-text questions into structured ParsedQuery
// values and broadens raw terms into synonym sets.
//
// The parser is a pure function over its input and an injected clock:
// intent detection is an ordered first-match-wins decision list, entities
// come from static skill/role vocabularies plus capitalized-span name
// candidates, and time constraints resolve named relative phrases into
// concrete windows. The expander unions direct expansions, related
// concepts, and reverse lookups from the same embedded vocabulary.
package query
