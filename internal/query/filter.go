// Package query applies the viewer's user-selected filters and sorts to the
// grouped record set. Filters AND-combine; sorting is stable with a
// tri-state direction cycle per field.
package query

import (
	"github.com/visionrag/ragview/internal/metrics"
	"github.com/visionrag/ragview/internal/models"
)

// FilterAll is the wildcard value that disables an individual filter.
const FilterAll = "all"

// ContextFilter selects groups by pair-member presence.
type ContextFilter string

const (
	ContextAll     ContextFilter = FilterAll
	ContextWith    ContextFilter = "with_context"
	ContextWithout ContextFilter = "without_context"
)

// ImpactFilter selects groups by their context-impact bucket.
type ImpactFilter string

const (
	ImpactAll      ImpactFilter = FilterAll
	ImpactPositive ImpactFilter = "positive"
	ImpactNegative ImpactFilter = "negative"
	ImpactZero     ImpactFilter = "zero"
	ImpactRated    ImpactFilter = "has_any_rating"
)

// Filters is the viewer's AND-combined predicate set. Zero values and
// FilterAll both mean "no filter" for their dimension.
type Filters struct {
	Model    string
	Provider string
	Context  ContextFilter
	Impact   ImpactFilter
}

// Apply returns the groups matching every active filter, preserving input
// order. The rating source is consulted only for impact filters.
func Apply(groups []*models.GroupedUnit, f Filters, src metrics.RatingSource) []*models.GroupedUnit {
	out := make([]*models.GroupedUnit, 0, len(groups))
	for _, g := range groups {
		if matches(g, f, src) {
			out = append(out, g)
		}
	}
	return out
}

func matches(g *models.GroupedUnit, f Filters, src metrics.RatingSource) bool {
	if f.Model != "" && f.Model != FilterAll && g.ModelName != f.Model {
		return false
	}
	if f.Provider != "" && f.Provider != FilterAll && g.EmbeddingProvider != f.Provider {
		return false
	}

	switch f.Context {
	case ContextWith:
		if g.WithContext == nil {
			return false
		}
	case ContextWithout:
		if g.WithoutContext == nil {
			return false
		}
	}

	switch f.Impact {
	case ImpactPositive:
		delta, ok := metrics.ContextImpact(g, src)
		return ok && delta > 0
	case ImpactNegative:
		delta, ok := metrics.ContextImpact(g, src)
		return ok && delta < 0
	case ImpactZero:
		delta, ok := metrics.ContextImpact(g, src)
		return ok && delta == 0
	case ImpactRated:
		_, withOK := src.Evaluation(g, models.ModeWith)
		_, withoutOK := src.Evaluation(g, models.ModeWithout)
		return withOK || withoutOK
	}

	return true
}
