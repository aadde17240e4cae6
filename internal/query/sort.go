package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/visionrag/ragview/internal/metrics"
	"github.com/visionrag/ragview/internal/models"
)

// SortField names a sortable column of the grouped table.
type SortField string

const (
	SortTimeWith    SortField = "time_with"
	SortTimeWithout SortField = "time_without"
	SortItemID      SortField = "item_id"
	SortModel       SortField = "model"
	SortScore       SortField = "score"
	SortImpact      SortField = "impact"
)

// Direction is the tri-state sort direction.
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// SortState tracks the active sort column and direction for a table view.
type SortState struct {
	Field     SortField
	Direction Direction
}

// Cycle advances the state for a click on field: selecting the active field
// cycles none -> asc -> desc -> none, selecting a different field resets to
// ascending.
func (s *SortState) Cycle(field SortField) {
	if s.Field != field {
		s.Field = field
		s.Direction = DirectionAsc
		return
	}
	switch s.Direction {
	case DirectionAsc:
		s.Direction = DirectionDesc
	case DirectionDesc:
		s.Field = ""
		s.Direction = DirectionNone
	default:
		s.Direction = DirectionAsc
	}
}

// Sort returns a sorted copy of groups. The sort is stable: groups that
// compare equal keep their prior relative order. Groups with a missing sort
// value sort after every present value regardless of direction. A none
// direction returns the input order unchanged.
func Sort(groups []*models.GroupedUnit, field SortField, dir Direction, src metrics.RatingSource) []*models.GroupedUnit {
	out := make([]*models.GroupedUnit, len(groups))
	copy(out, groups)
	if dir != DirectionAsc && dir != DirectionDesc {
		return out
	}

	desc := dir == DirectionDesc
	sort.SliceStable(out, func(i, j int) bool {
		return lessGroups(out[i], out[j], field, desc, src)
	})
	return out
}

// lessGroups compares two groups on field. Missing values are pushed last
// in both directions, so only present-vs-present comparisons invert for
// descending order.
func lessGroups(a, b *models.GroupedUnit, field SortField, desc bool, src metrics.RatingSource) bool {
	switch field {
	case SortItemID:
		return lessItemID(a.ItemID, b.ItemID, desc)
	case SortModel:
		if desc {
			return strings.Compare(a.ModelName, b.ModelName) > 0
		}
		return a.ModelName < b.ModelName
	}

	av, aok := sortValue(a, field, src)
	bv, bok := sortValue(b, field, src)
	switch {
	case !aok && !bok:
		return false
	case !aok:
		return false
	case !bok:
		return true
	}
	if desc {
		return av > bv
	}
	return av < bv
}

// sortValue extracts the numeric sort key for field, reporting absence.
func sortValue(g *models.GroupedUnit, field SortField, src metrics.RatingSource) (float64, bool) {
	switch field {
	case SortTimeWith:
		if g.WithContext == nil {
			return 0, false
		}
		return g.WithContext.ProcessingTimeSeconds, true
	case SortTimeWithout:
		if g.WithoutContext == nil {
			return 0, false
		}
		return g.WithoutContext.ProcessingTimeSeconds, true
	case SortScore:
		score := metrics.CorrectnessScore(g, src)
		if score == metrics.Unrated {
			return 0, false
		}
		return score, true
	case SortImpact:
		delta, ok := metrics.ContextImpact(g, src)
		return float64(delta), ok
	}
	return 0, false
}

// lessItemID compares item identifiers numerically when both parse as
// integers (the VizWiz ids are numeric strings), lexically otherwise.
func lessItemID(a, b string, desc bool) bool {
	an, aerr := strconv.ParseInt(a, 10, 64)
	bn, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		if desc {
			return an > bn
		}
		return an < bn
	}
	if desc {
		return a > b
	}
	return a < b
}
