// Package snapshot serializes scored datasets into self-describing export
// files and reconstructs record sets and scoring state from them.
//
// An export embeds the evaluation state per record instead of keeping a
// separate map, so a snapshot is auditable by inspection and survives a
// round trip without any external state. Import additionally accepts plain
// JSONL record collections and the legacy snapshot variant that carried a
// flat evaluations map.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/visionrag/ragview/internal/grouping"
	"github.com/visionrag/ragview/internal/metrics"
	"github.com/visionrag/ragview/internal/models"
)

// Version is the schema version written by Export. Version 1.0 snapshots
// kept their evaluation state in a flat map and are still accepted on
// import.
const (
	Version       = "2.0"
	VersionLegacy = "1.0"
)

// FilenamePrefix is the fixed prefix of export file names.
const FilenamePrefix = "ragview_export"

// ExportedRecord is a raw record plus the derived evaluation fields
// computed at export time.
type ExportedRecord struct {
	models.RawRecord

	// Evaluation is the numeric point value of the human rating, absent
	// when the record was not rated.
	Evaluation         *int    `json:"evaluation,omitempty"`
	EvaluationCategory *string `json:"evaluation_category,omitempty"`

	WordCount int `json:"word_count"`

	// Pair-level metrics, duplicated onto both members of the pair.
	PairCorrectnessScore *float64 `json:"pair_correctness_score,omitempty"`
	PairContextImpact    *int     `json:"pair_context_impact,omitempty"`
}

// Summary holds the snapshot's count block.
type Summary struct {
	TotalResults     int `json:"total_results"`
	TotalEvaluations int `json:"total_evaluations"`
	EvaluatedResults int `json:"evaluated_results"`
}

// Snapshot is the export file shape.
type Snapshot struct {
	Version    string            `json:"version"`
	ExportID   string            `json:"export_id,omitempty"`
	ExportedAt time.Time         `json:"exported_at"`
	Legend     map[string]string `json:"legend,omitempty"`
	Data       []ExportedRecord  `json:"data"`
	Summary    Summary           `json:"summary"`

	// Evaluations carries the legacy flat key-to-category map. Written
	// snapshots never include it; import still honors it.
	Evaluations map[string]string `json:"evaluations,omitempty"`
}

// legend describes the embedded derived fields for human readers of the
// export file.
var legend = map[string]string{
	"evaluation":             "human rating points: 3=direct, 2=inferable, 1=missing_or_incorrect, 0=hallucination; absent=unrated",
	"evaluation_category":    "human rating category name",
	"word_count":             "whitespace word count of response_text",
	"pair_correctness_score": "mean points of the rated members of this record's with/without pair",
	"pair_context_impact":    "with-context points minus without-context points, present only when both members are rated",
}

// Build assembles a snapshot from the raw record set and the rating source.
func Build(records []*models.RawRecord, src metrics.RatingSource) *Snapshot {
	snap := &Snapshot{
		Version:    Version,
		ExportID:   uuid.NewString(),
		ExportedAt: time.Now().UTC(),
		Legend:     legend,
		Data:       make([]ExportedRecord, 0, len(records)),
	}

	// Pair-level metrics need the grouped view. Stored evaluations are
	// counted per grouped slot, not per record, so duplicate key+flag
	// records sharing one rating don't inflate the total.
	totalEvals := 0
	unitsByKey := make(map[string]*models.GroupedUnit)
	for _, unit := range grouping.Group(records).Units {
		unitsByKey[unit.GroupID] = unit
		for _, mode := range []models.ContextMode{models.ModeWith, models.ModeWithout} {
			if _, ok := src.Evaluation(unit, mode); ok {
				totalEvals++
			}
		}
	}

	evaluated := 0
	for _, rec := range records {
		entry := ExportedRecord{
			RawRecord: *rec,
			WordCount: metrics.WordCount(rec.Response()),
		}

		unit := unitsByKey[rec.GroupKey()]
		if category, ok := src.Evaluation(unit, rec.Mode()); ok {
			points := category.Points()
			name := string(category)
			entry.Evaluation = &points
			entry.EvaluationCategory = &name
			evaluated++
		}
		if score := metrics.CorrectnessScore(unit, src); score != metrics.Unrated {
			entry.PairCorrectnessScore = &score
		}
		if delta, ok := metrics.ContextImpact(unit, src); ok {
			entry.PairContextImpact = &delta
		}

		snap.Data = append(snap.Data, entry)
	}

	snap.Summary = Summary{
		TotalResults:     len(records),
		TotalEvaluations: totalEvals,
		EvaluatedResults: evaluated,
	}
	return snap
}

// Write encodes the snapshot pretty-printed to w.
func Write(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("snapshot: encoding export: %w", err)
	}
	return nil
}

// Filename returns the timestamp-suffixed export file name for t.
func Filename(t time.Time) string {
	return fmt.Sprintf("%s_%s.json", FilenamePrefix, t.Format("20060102_150405"))
}
