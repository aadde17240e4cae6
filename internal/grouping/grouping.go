// Package grouping joins raw evaluation records into with/without-context
// pairs keyed by (item, model, embedding provider).
package grouping

import "github.com/visionrag/ragview/internal/models"

// Result holds the grouped units in first-seen key order along with the
// number of slot overwrites observed while grouping. Overwrites happen when
// the input contains two records for the same key and context mode; the
// later record wins, matching the append-only JSONL the pipeline writes,
// where a re-run legitimately supersedes an earlier line.
type Result struct {
	Units      []*models.GroupedUnit
	Overwrites int
}

// Group performs a single pass over records, producing one GroupedUnit per
// key. Scalar display fields prefer the with-context member when both are
// present. Empty input yields an empty result.
func Group(records []*models.RawRecord) *Result {
	res := &Result{}
	byKey := make(map[string]*models.GroupedUnit)

	for _, rec := range records {
		if rec == nil {
			continue
		}
		key := rec.GroupKey()

		unit, ok := byKey[key]
		if !ok {
			unit = &models.GroupedUnit{
				GroupID:           key,
				ItemID:            rec.ItemID,
				ModelName:         rec.ModelName,
				EmbeddingProvider: rec.EmbeddingProvider,
			}
			byKey[key] = unit
			res.Units = append(res.Units, unit)
		}

		if rec.WithContext {
			if unit.WithContext != nil {
				res.Overwrites++
			}
			unit.WithContext = rec
		} else {
			if unit.WithoutContext != nil {
				res.Overwrites++
			}
			unit.WithoutContext = rec
		}

		refreshScalars(unit)
	}

	return res
}

// refreshScalars fills the unit's display fields from its members,
// preferring the with-context record.
func refreshScalars(unit *models.GroupedUnit) {
	src := unit.WithContext
	if src == nil {
		src = unit.WithoutContext
	}
	if src == nil {
		return
	}
	unit.ImageURL = src.ImageURL
	unit.QuestionText = src.QuestionText
	unit.ExpectedAnswer = src.ExpectedAnswer
}
