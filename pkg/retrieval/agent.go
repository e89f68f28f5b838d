// Package retrieval plans and executes multi-strategy search: parse the
// query, fan out over the primary strategies, optionally enrich through
// graph traversal or keyword expansion, then deduplicate and organize the
// merged results.
package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/knnymrls/whoknows/pkg/query"
	"github.com/knnymrls/whoknows/pkg/search"
	"github.com/knnymrls/whoknows/pkg/types"
)

const (
	// graphEnrichmentBreakpoint: primary results below this count (but
	// non-zero) trigger the graph enrichment pass.
	graphEnrichmentBreakpoint = 10

	// expansionBreakpoint: results below this count trigger the planned
	// keyword expansion pass.
	expansionBreakpoint = 5

	// maxGraphSeeds caps how many top primary hits seed enrichment.
	maxGraphSeeds = 5

	// enrichmentDepth is the fixed traversal depth for the enrichment
	// pass, cheaper than the plan's nominal depth.
	enrichmentDepth = 1

	// maxInjectedGraphResults caps how many enrichment hits join the
	// merged set.
	maxInjectedGraphResults = 10
)

// Graph depth heuristics from lexical cues in the raw query.
const (
	depthRelationship = 3
	depthPrecision    = 1
	depthDefault      = 2
)

var (
	relationshipCues = []string{"connect", "network", "collaborat"}
	precisionCues    = []string{"direct", "specific", "exactly"}
)

// ProgressFunc receives advisory phase updates. Progress is fire-and-
// forget: a nil sink changes nothing about the returned results.
type ProgressFunc func(types.ProgressUpdate)

// Agent orchestrates parsing, strategy execution and result organization.
type Agent struct {
	parser   *query.Parser
	semantic search.Strategy
	keyword  search.Strategy
	graph    search.Strategy
	logger   *slog.Logger
}

// NewAgent wires a retrieval agent from its strategies.
func NewAgent(parser *query.Parser, semantic, keyword, graph search.Strategy, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		parser:   parser,
		semantic: semantic,
		keyword:  keyword,
		graph:    graph,
		logger:   logger,
	}
}

// searchPlan is the per-query execution plan. Entity coverage is always
// all types; the plan does not narrow by intent.
type searchPlan struct {
	primaries  []search.Strategy
	expansion  bool
	graphDepth int
}

// Retrieve runs the full retrieval pipeline for one query.
func (a *Agent) Retrieve(ctx context.Context, rawQuery string, progress ProgressFunc) (*types.ParsedQuery, *types.SearchResults, error) {
	emit(progress, types.PhaseAnalyzing, "🔍", "Analyzing your question...")

	parsedValue := a.parser.Parse(rawQuery)
	parsed := &parsedValue
	plan := a.buildPlan(parsed)

	a.logger.Debug("search plan built",
		"intent", parsed.Intent,
		"primaries", len(plan.primaries),
		"expansion", plan.expansion,
		"graph_depth", plan.graphDepth,
	)

	emit(progress, types.PhaseSearching, "📚", "Searching across people, posts, and projects...")

	merged, err := a.executePrimaries(ctx, parsed, plan)
	if err != nil {
		return nil, nil, err
	}

	if len(merged) > 0 && len(merged) < graphEnrichmentBreakpoint && parsed.Time == nil {
		emit(progress, types.PhaseExploring, "🕸️", "Exploring connections...")
		enriched, err := a.enrichFromGraph(ctx, merged)
		if err != nil {
			return nil, nil, err
		}
		merged = append(merged, enriched...)
	}

	if len(merged) < expansionBreakpoint && plan.expansion {
		expanded, err := a.keyword.Execute(ctx, parsed.Original, &search.Params{
			Keywords: parsed.Keywords,
			Expand:   true,
		})
		if err != nil {
			return nil, nil, err
		}
		merged = append(merged, expanded...)
	}

	organized := organize(dedupe(merged))
	organized.Relationships = deriveRelationships(organized)

	a.logger.Debug("retrieval complete", "total", organized.Total())
	return parsed, organized, nil
}

// buildPlan decides which strategies run and how deep graph traversal
// goes.
func (a *Agent) buildPlan(parsed *types.ParsedQuery) searchPlan {
	plan := searchPlan{
		primaries:  []search.Strategy{a.semantic},
		graphDepth: chooseDepth(parsed.Original),
	}

	if len(meaningfulTerms(parsed)) > 0 {
		plan.primaries = append(plan.primaries, a.keyword)
	}

	// Expansion is reserved for complex queries: multiple entities, a
	// few keywords, and no time constraint to violate by broadening.
	if len(parsed.Entities) > 1 && len(parsed.Keywords) > 2 && parsed.Time == nil {
		plan.expansion = true
	}

	return plan
}

// executePrimaries runs the planned primary strategies concurrently and
// merges their output. Any strategy failure discards the partial merge.
func (a *Agent) executePrimaries(ctx context.Context, parsed *types.ParsedQuery, plan searchPlan) ([]types.SearchResult, error) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		merged []types.SearchResult
		first  error
	)

	for _, strategy := range plan.primaries {
		wg.Add(1)
		go func(s search.Strategy) {
			defer wg.Done()
			results, err := s.Execute(ctx, parsed.Original, &search.Params{Keywords: parsed.Keywords})
			if err != nil {
				mu.Lock()
				if first == nil {
					first = err
				}
				mu.Unlock()
				return
			}
			results = search.TemporalFilter(results, parsed.Time)
			mu.Lock()
			merged = append(merged, results...)
			mu.Unlock()
		}(strategy)
	}
	wg.Wait()

	if first != nil {
		return nil, first
	}
	return merged, nil
}

// enrichFromGraph seeds a shallow traversal from the strongest primary
// hits and caps what it may inject.
func (a *Agent) enrichFromGraph(ctx context.Context, merged []types.SearchResult) ([]types.SearchResult, error) {
	top := make([]types.SearchResult, len(merged))
	copy(top, merged)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].RelevanceScore > top[j].RelevanceScore
	})
	if len(top) > maxGraphSeeds {
		top = top[:maxGraphSeeds]
	}

	seeds := make([]search.Seed, 0, len(top))
	for _, r := range top {
		seeds = append(seeds, search.Seed{Type: r.Type, ID: r.ID})
	}

	enriched, err := a.graph.Execute(ctx, "", &search.Params{Seeds: seeds, Depth: enrichmentDepth})
	if err != nil {
		return nil, err
	}
	if len(enriched) > maxInjectedGraphResults {
		enriched = enriched[:maxInjectedGraphResults]
	}
	return enriched, nil
}

// meaningfulTerms is the union of parsed keywords, entity values, and the
// individual words of multi-word entities, stop-words removed.
func meaningfulTerms(parsed *types.ParsedQuery) []string {
	terms := make([]string, 0, len(parsed.Keywords)+len(parsed.Entities))
	seen := make(map[string]struct{})
	add := func(t string) {
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}

	for _, kw := range parsed.Keywords {
		add(kw)
	}
	for _, e := range parsed.Entities {
		if e.Type == types.EntityTimeframe {
			continue
		}
		add(strings.ToLower(e.Value))
		for _, word := range query.Keywords(e.Value) {
			add(word)
		}
	}
	return terms
}

func chooseDepth(rawQuery string) int {
	lower := strings.ToLower(rawQuery)
	for _, cue := range relationshipCues {
		if strings.Contains(lower, cue) {
			return depthRelationship
		}
	}
	for _, cue := range precisionCues {
		if strings.Contains(lower, cue) {
			return depthPrecision
		}
	}
	return depthDefault
}

// dedupe collapses results sharing a "type:id" key, keeping the higher
// relevance score on conflict.
func dedupe(results []types.SearchResult) []types.SearchResult {
	index := make(map[string]int, len(results))
	deduped := make([]types.SearchResult, 0, len(results))

	for _, r := range results {
		key := r.DedupeKey()
		if i, ok := index[key]; ok {
			if r.RelevanceScore > deduped[i].RelevanceScore {
				deduped[i] = r
			}
			continue
		}
		index[key] = len(deduped)
		deduped = append(deduped, r)
	}
	return deduped
}

func organize(results []types.SearchResult) *types.SearchResults {
	organized := &types.SearchResults{}
	for _, r := range results {
		organized.Append(r)
	}
	organized.SortBuckets()
	return organized
}

// deriveRelationships reconstructs authorship and contribution edges from
// fields visible in the organized result set.
func deriveRelationships(organized *types.SearchResults) []types.Relationship {
	var edges []types.Relationship
	seen := make(map[string]struct{})
	add := func(e types.Relationship) {
		key := e.Source + "|" + e.Target + "|" + string(e.Type)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		edges = append(edges, e)
	}

	for _, r := range organized.Posts {
		post, ok := r.Data.(*types.Post)
		if !ok || post.AuthorID == "" {
			continue
		}
		add(types.Relationship{Source: post.AuthorID, Target: post.ID, Type: types.RelationAuthored})
	}

	for _, r := range organized.Projects {
		project, ok := r.Data.(*types.Project)
		if !ok {
			continue
		}
		for _, c := range project.Contributions {
			contributorID := c.ProfileID
			if contributorID == "" && c.Contributor != nil {
				contributorID = c.Contributor.ID
			}
			if contributorID == "" {
				continue
			}
			add(types.Relationship{Source: contributorID, Target: project.ID, Type: types.RelationContributes})
		}
	}

	return edges
}

func emit(progress ProgressFunc, phase types.ProgressPhase, emoji, message string) {
	if progress == nil {
		return
	}
	progress(types.ProgressUpdate{Phase: phase, Message: message, Emoji: emoji})
}
