// Package search implements the three retrieval strategies — semantic
// similarity, expanded keyword matching, and bounded graph traversal —
// behind a single Strategy contract, plus the best-effort temporal filter
// applied over strategy output.
package search

import (
	"context"

	"github.com/knnymrls/whoknows/pkg/types"
)

// Seed identifies an entity to start graph traversal from.
type Seed struct {
	Type types.ResultType `json:"type"`
	ID   string           `json:"id"`
}

// Params tunes a single strategy execution. Zero values mean "use the
// strategy's defaults".
type Params struct {
	// Keywords overrides tokenizing the query text (keyword strategy).
	Keywords []string

	// Expand broadens keywords through the entity expander before
	// querying (keyword strategy).
	Expand bool

	// Seeds and Depth drive graph traversal.
	Seeds []Seed
	Depth int

	// Limit caps per-entity-type result counts (semantic strategy).
	Limit int
}

// Strategy is the common contract all retrieval strategies implement.
// Executions are independently callable and side-effect-free aside from
// store reads.
type Strategy interface {
	Name() string
	Execute(ctx context.Context, query string, params *Params) ([]types.SearchResult, error)
}
