package query

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/knnymrls/whoknows/pkg/types"
)

// Entity extraction confidences. Pattern-match certainty only; none of
// these imply the entity exists in the store.
const (
	skillConfidence     = 0.9
	roleConfidence      = 0.85
	timeframeConfidence = 0.8
	personConfidence    = 0.7
)

// minKeywordLength drops short tokens that carry no search signal.
const minKeywordLength = 3

// Parser turns free text into a ParsedQuery. Parsing is deterministic and
// performs no I/O; the clock is injected so relative time windows are
// testable.
type Parser struct {
	now   func() time.Time
	vocab *vocabulary
}

// NewParser creates a parser using the wall clock.
func NewParser() *Parser {
	return NewParserWithClock(time.Now)
}

// NewParserWithClock creates a parser with an injected clock.
func NewParserWithClock(now func() time.Time) *Parser {
	return &Parser{now: now, vocab: mustVocabulary()}
}

// intentRule pairs an ordered group of patterns with the intent it signals.
// Classification is first-match-wins over the lowercased query; this is a
// decision list, not a scored classifier.
type intentRule struct {
	intent   types.Intent
	patterns []*regexp.Regexp
}

var intentRules = []intentRule{
	{types.IntentFindPeople, compileAll(
		`\bwho\s+(knows?|is|are|has|have|works?|can|does|understands?)\b`,
		`\b(find|looking for|need|searching for)\s+(someone|somebody|a person|people|an? expert)\b`,
		`\bexperts?\s+(in|on|with|at)\b`,
		`\banyone\s+(know|familiar|with|who)\b`,
	)},
	{types.IntentFindProjects, compileAll(
		`\bprojects?\b.*\b(about|on|using|with|involving|related)\b`,
		`\bwhat\s+projects?\b`,
		`\b(working|worked)\s+on\b`,
		`\binitiatives?\s+(about|around|on)\b`,
	)},
	{types.IntentFindActivity, compileAll(
		`\bwhat\s+happened\b`,
		`\b(recent|latest)\s+(activity|updates?|posts?|news|work)\b`,
		`\bwhat('s| is| has been)\s+(new|going on|happening)\b`,
		`\bupdates?\s+(from|on|about)\b`,
	)},
	{types.IntentFindKnowledge, compileAll(
		`\bhow\s+(do|does|to|can)\b`,
		`\bwhat\s+(is|are)\b`,
		`\b(explain|documentation|docs|learn about|guide)\b`,
	)},
	{types.IntentFindRelationships, compileAll(
		`\bwho\s+works?\s+with\b`,
		`\b(connected?|connections?)\b`,
		`\bcollaborat\w*\b`,
		`\b(relationships?|network|teams?\s+around)\b`,
	)},
	{types.IntentAnalytical, compileAll(
		`\bhow\s+many\b`,
		`\b(count|compare|comparison|most|least|average|trends?|distribution)\b`,
	)},
	{types.IntentTemporal, compileAll(
		`\bwhen\s+(did|was|were|is)\b`,
		`\b(timeline|history|chronolog\w*)\b`,
	)},
	{types.IntentExploratory, compileAll(
		`\btell\s+me\s+(more\s+)?about\b`,
		`\b(overview|summary)\s+of\b`,
		`\bwhat\s+do\s+you\s+know\b`,
	)},
	{types.IntentSpecific, compileAll(
		`"[^"]+"`,
		`\bexactly\b`,
		`\bspecifically\b`,
	)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

var (
	personNameRe     = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)
	personMentionRe  = regexp.MustCompile(`@(\w+)`)
	projectMentionRe = regexp.MustCompile(`\bProject\s+([A-Z][A-Za-z0-9]+)`)
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "has": {}, "have": {},
	"her": {}, "his": {}, "was": {}, "were": {}, "one": {}, "our": {},
	"out": {}, "who": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"with": {}, "about": {}, "into": {}, "from": {}, "that": {}, "this": {},
	"these": {}, "those": {}, "they": {}, "them": {}, "then": {}, "than": {},
	"there": {}, "here": {}, "how": {}, "why": {}, "any": {}, "anyone": {},
	"some": {}, "someone": {}, "does": {}, "did": {}, "know": {}, "knows": {},
	"find": {}, "show": {}, "tell": {}, "get": {}, "give": {}, "me": {},
	"my": {}, "your": {}, "is": {}, "be": {}, "been": {}, "being": {},
	"on": {}, "in": {}, "at": {}, "of": {}, "to": {}, "a": {}, "an": {},
	"it": {}, "its": {}, "or": {}, "as": {}, "by": {}, "would": {},
	"could": {}, "should": {}, "will": {}, "recently": {}, "last": {},
	"week": {}, "month": {}, "year": {}, "today": {}, "yesterday": {},
}

// Parse converts free text into its structured form. It never fails: an
// unrecognized query degrades to the general intent with empty entities.
func (p *Parser) Parse(q string) types.ParsedQuery {
	lower := strings.ToLower(q)

	return types.ParsedQuery{
		Original: q,
		Intent:   detectIntent(lower),
		Entities: p.extractEntities(q, lower),
		Keywords: extractKeywords(lower),
		Time:     p.extractTimeConstraint(lower),
		Mentions: extractMentions(q),
	}
}

func detectIntent(lower string) types.Intent {
	for _, rule := range intentRules {
		for _, re := range rule.patterns {
			if re.MatchString(lower) {
				return rule.intent
			}
		}
	}
	return types.IntentGeneral
}

func (p *Parser) extractEntities(original, lower string) []types.ExtractedEntity {
	var entities []types.ExtractedEntity
	seen := make(map[string]struct{})

	add := func(t types.EntityType, value string, confidence float64) {
		key := string(t) + ":" + value
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		entities = append(entities, types.ExtractedEntity{Type: t, Value: value, Confidence: confidence})
	}

	for _, skill := range p.vocab.Skills {
		if containsTerm(lower, skill) {
			add(types.EntitySkill, skill, skillConfidence)
		}
	}
	for _, role := range p.vocab.Roles {
		if containsTerm(lower, role) {
			add(types.EntityRole, role, roleConfidence)
		}
	}

	// Capitalized multi-word spans are candidate person names unless they
	// collide with a known skill or role keyword.
	for _, span := range personNameRe.FindAllString(original, -1) {
		if p.collidesWithVocabulary(strings.ToLower(span)) {
			continue
		}
		add(types.EntityPerson, span, personConfidence)
	}

	if tc := p.extractTimeConstraint(lower); tc != nil && tc.Relative != "" {
		add(types.EntityTimeframe, tc.Relative, timeframeConfidence)
	}

	return entities
}

func (p *Parser) collidesWithVocabulary(lowerSpan string) bool {
	for _, skill := range p.vocab.Skills {
		if containsTerm(lowerSpan, skill) {
			return true
		}
	}
	for _, role := range p.vocab.Roles {
		if containsTerm(lowerSpan, role) {
			return true
		}
	}
	return false
}

// containsTerm reports a word-boundary match of term inside text. Terms
// with non-word characters (c++, ci/cd) fall back to substring matching
// since \b is meaningless around them.
func containsTerm(text, term string) bool {
	for _, r := range term {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' {
			return strings.Contains(text, term)
		}
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	return re.MatchString(text)
}

// Keywords tokenizes text into deduplicated search keywords using the
// same stop-word and length rules the parser applies.
func Keywords(text string) []string {
	return extractKeywords(strings.ToLower(text))
}

func extractKeywords(lower string) []string {
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	keywords := make([]string, 0, len(tokens))
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if len(tok) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	return keywords
}

func extractMentions(original string) types.Mentions {
	mentions := types.Mentions{People: []string{}, Projects: []string{}}

	for _, m := range personMentionRe.FindAllStringSubmatch(original, -1) {
		mentions.People = append(mentions.People, m[1])
	}
	for _, m := range projectMentionRe.FindAllStringSubmatch(original, -1) {
		mentions.Projects = append(mentions.Projects, m[1])
	}
	return mentions
}
