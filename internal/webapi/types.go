package webapi

import "github.com/visionrag/ragview/internal/models"

// MemberView is the API shape for one side of a grouped pair.
type MemberView struct {
	ResponseText          string  `json:"response_text"`
	PromptText            string  `json:"prompt_text"`
	Error                 string  `json:"error,omitempty"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	WordCount             int     `json:"word_count"`
	Conciseness           string  `json:"conciseness"`
	Evaluation            string  `json:"evaluation,omitempty"`
}

// GroupView is the API shape for a grouped unit with its derived metrics.
type GroupView struct {
	GroupID           string `json:"group_id"`
	ItemID            string `json:"item_id"`
	ModelName         string `json:"model_name"`
	EmbeddingProvider string `json:"embedding_provider"`
	ImageURL          string `json:"image_url"`
	QuestionText      string `json:"question_text"`
	ExpectedAnswer    string `json:"expected_answer"`

	SimilarItems []models.SimilarItem `json:"similar_items,omitempty"`

	With    *MemberView `json:"with_context,omitempty"`
	Without *MemberView `json:"without_context,omitempty"`

	CorrectnessScore *float64 `json:"correctness_score,omitempty"`
	ContextImpact    *int     `json:"context_impact,omitempty"`
	ImpactLabel      string   `json:"impact_label,omitempty"`
	SimilarityBucket string   `json:"similarity_bucket"`
}

// GroupsResponse wraps the filtered, sorted grouped table.
type GroupsResponse struct {
	Total  int         `json:"total"`
	Groups []GroupView `json:"groups"`
}

// EvaluationRequest mutates the scoring store for one side of a pair.
type EvaluationRequest struct {
	GroupID  string `json:"group_id"`
	Context  string `json:"context"`
	Category string `json:"category"`
}

// EvaluationResponse reports the resulting state after a mutation.
type EvaluationResponse struct {
	GroupID string `json:"group_id"`
	Context string `json:"context"`
	// Category is empty when the mutation toggled the evaluation off.
	Category string `json:"category,omitempty"`
	Removed  bool   `json:"removed"`
}

// ImportResponse summarizes an accepted upload.
type ImportResponse struct {
	Records     int      `json:"records"`
	Evaluations int      `json:"evaluations"`
	Warnings    []string `json:"warnings,omitempty"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
