// Package models defines the data contract for evaluation records produced
// by the VisionRAG generation pipeline and the grouped pair view the viewer
// is built on. Types here carry no behavior beyond key derivation and small
// accessors; all computation lives in the metrics and dashboard packages.
package models

import "fmt"

// SimilarItem is one retrieved neighbor from the vector store, attached to a
// with-context record. Distance is the retrieval distance (lower is closer).
type SimilarItem struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	ImageURL string  `json:"image_url"`
}

// RawRecord is a single evaluation attempt for one
// (item, model, embedding provider, context mode) combination.
//
// Records are written by the generation pipeline as newline-delimited JSON
// and are immutable once loaded. ResponseText and Error are nullable: a
// populated Error means the pipeline's LLM call failed for this record,
// which is valid data, not a viewer error.
type RawRecord struct {
	ItemID                string        `json:"item_id"`
	ModelName             string        `json:"model_name"`
	EmbeddingProvider     string        `json:"embedding_provider"`
	WithContext           bool          `json:"with_context"`
	ImageURL              string        `json:"image_url"`
	QuestionText          string        `json:"question_text"`
	ExpectedAnswer        string        `json:"expected_answer"`
	SimilarItems          []SimilarItem `json:"similar_items"`
	PromptText            string        `json:"prompt_text"`
	ResponseText          *string       `json:"response_text"`
	Error                 *string       `json:"error"`
	ProcessingTimeSeconds float64       `json:"processing_time_seconds"`

	// Timestamp is written by the pipeline and treated as opaque display data.
	Timestamp string `json:"timestamp,omitempty"`
}

// GroupKey returns the grouping key shared by the with/without-context pair.
func (r *RawRecord) GroupKey() string {
	return GroupKey(r.ItemID, r.ModelName, r.EmbeddingProvider)
}

// Mode returns the record's context mode.
func (r *RawRecord) Mode() ContextMode {
	if r.WithContext {
		return ModeWith
	}
	return ModeWithout
}

// Failed reports whether the generation step failed for this record.
func (r *RawRecord) Failed() bool {
	return r.Error != nil && *r.Error != ""
}

// Response returns the response text, or the empty string when the record
// has none.
func (r *RawRecord) Response() string {
	if r.ResponseText == nil {
		return ""
	}
	return *r.ResponseText
}

// ContextMode distinguishes the two members of a grouped pair.
type ContextMode string

const (
	ModeWith    ContextMode = "with"
	ModeWithout ContextMode = "without"
)

// Valid reports whether m is one of the two supported modes.
func (m ContextMode) Valid() bool {
	return m == ModeWith || m == ModeWithout
}

// GroupKey builds the key identifying one with/without-context pair.
func GroupKey(itemID, modelName, provider string) string {
	return fmt.Sprintf("%s-%s-%s", itemID, modelName, provider)
}

// EvaluationKey builds the scoring-store key for one record of a pair.
func EvaluationKey(itemID, modelName, provider string, mode ContextMode) string {
	return fmt.Sprintf("%s-%s", GroupKey(itemID, modelName, provider), mode)
}

// GroupedUnit is the join of the up-to-two raw records sharing a group key.
// At least one member slot is always populated. Scalar display fields are
// taken from whichever member is present, preferring the with-context one.
type GroupedUnit struct {
	GroupID           string     `json:"group_id"`
	ItemID            string     `json:"item_id"`
	ModelName         string     `json:"model_name"`
	EmbeddingProvider string     `json:"embedding_provider"`
	ImageURL          string     `json:"image_url"`
	QuestionText      string     `json:"question_text"`
	ExpectedAnswer    string     `json:"expected_answer"`
	WithContext       *RawRecord `json:"with_context_record"`
	WithoutContext    *RawRecord `json:"without_context_record"`
}

// Member returns the record for the given context mode, or nil when that
// side of the pair is absent.
func (g *GroupedUnit) Member(mode ContextMode) *RawRecord {
	if mode == ModeWith {
		return g.WithContext
	}
	return g.WithoutContext
}

// EvaluationKey returns the scoring-store key for one side of this pair.
func (g *GroupedUnit) EvaluationKey(mode ContextMode) string {
	return EvaluationKey(g.ItemID, g.ModelName, g.EmbeddingProvider, mode)
}

// HasError reports whether either present member carries a pipeline error.
func (g *GroupedUnit) HasError() bool {
	return (g.WithContext != nil && g.WithContext.Failed()) ||
		(g.WithoutContext != nil && g.WithoutContext.Failed())
}
