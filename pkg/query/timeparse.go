package query

import (
	"regexp"
	"strings"
	"time"

	"github.com/knnymrls/whoknows/pkg/types"
)

// relativeWindow maps a named phrase to a concrete window computed from
// the injected clock. Checked in order; first phrase found in the query
// wins.
type relativeWindow struct {
	phrase  string
	resolve func(now time.Time) (start, end time.Time)
}

func daysBack(days int) func(time.Time) (time.Time, time.Time) {
	return func(now time.Time) (time.Time, time.Time) {
		return now.AddDate(0, 0, -days), now
	}
}

var relativeWindows = []relativeWindow{
	{"today", func(now time.Time) (time.Time, time.Time) {
		return startOfDay(now), now
	}},
	{"yesterday", func(now time.Time) (time.Time, time.Time) {
		sod := startOfDay(now)
		return sod.AddDate(0, 0, -1), sod
	}},
	{"last week", daysBack(7)},
	{"past week", daysBack(7)},
	{"this week", daysBack(7)},
	{"last month", daysBack(30)},
	{"past month", daysBack(30)},
	{"this month", func(now time.Time) (time.Time, time.Time) {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), now
	}},
	{"last year", daysBack(365)},
	{"past year", daysBack(365)},
	{"this year", func(now time.Time) (time.Time, time.Time) {
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), now
	}},
	{"recently", daysBack(14)},
	{"lately", daysBack(14)},
}

// Fallback positional patterns. These retain only the matched substring;
// no concrete bounds are computed, so downstream temporal filtering skips
// such constraints. Known limitation carried over deliberately.
var fallbackTimePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\blast\s+\d+\s+(?:days?|weeks?|months?)\b`),
	regexp.MustCompile(`\bsince\s+\w+\b`),
	regexp.MustCompile(`\b(?:19|20)\d{2}\b`),
	// "may" is omitted: as a modal verb it false-positives constantly.
	regexp.MustCompile(`\b(?:january|february|march|april|june|july|august|september|october|november|december)\b`),
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (p *Parser) extractTimeConstraint(lower string) *types.TimeConstraint {
	for _, w := range relativeWindows {
		if strings.Contains(lower, w.phrase) {
			start, end := w.resolve(p.now())
			return &types.TimeConstraint{Start: &start, End: &end, Relative: w.phrase}
		}
	}

	for _, re := range fallbackTimePatterns {
		if m := re.FindString(lower); m != "" {
			return &types.TimeConstraint{Relative: m}
		}
	}
	return nil
}
