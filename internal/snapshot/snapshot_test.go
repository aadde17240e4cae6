package snapshot

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionrag/ragview/internal/grouping"
	"github.com/visionrag/ragview/internal/models"
	"github.com/visionrag/ragview/internal/scorestore"
)

func strptr(s string) *string { return &s }

func sampleRecords() []*models.RawRecord {
	return []*models.RawRecord{
		{
			ItemID:            "42",
			ModelName:         "gpt",
			EmbeddingProvider: "cohere",
			WithContext:       true,
			QuestionText:      "What is this?",
			ResponseText:      strptr("a large red truck"),
			SimilarItems:      []models.SimilarItem{{ID: "7", Distance: 0.3}},
		},
		{
			ItemID:            "42",
			ModelName:         "gpt",
			EmbeddingProvider: "cohere",
			WithContext:       false,
			QuestionText:      "What is this?",
			ResponseText:      strptr("a vehicle"),
		},
		{
			ItemID:            "43",
			ModelName:         "gpt",
			EmbeddingProvider: "cohere",
			WithContext:       true,
			Error:             strptr("rate limited"),
		},
	}
}

func ratedStore(t *testing.T, records []*models.RawRecord) *scorestore.Store {
	t.Helper()
	store := scorestore.Open("")
	units := grouping.Group(records).Units
	require.NotEmpty(t, units)

	_, err := store.Set(units[0], models.ModeWith, models.CategoryDirect)
	require.NoError(t, err)
	_, err = store.Set(units[0], models.ModeWithout, models.CategoryMissing)
	require.NoError(t, err)
	return store
}

func TestBuild(t *testing.T) {
	records := sampleRecords()
	snap := Build(records, ratedStore(t, records))

	assert.Equal(t, Version, snap.Version)
	assert.NotEmpty(t, snap.ExportID)
	assert.False(t, snap.ExportedAt.IsZero())
	require.Len(t, snap.Data, 3)

	rated := snap.Data[0]
	require.NotNil(t, rated.Evaluation)
	assert.Equal(t, 3, *rated.Evaluation)
	require.NotNil(t, rated.EvaluationCategory)
	assert.Equal(t, "direct", *rated.EvaluationCategory)
	assert.Equal(t, 4, rated.WordCount)
	require.NotNil(t, rated.PairCorrectnessScore)
	assert.InDelta(t, 2.0, *rated.PairCorrectnessScore, 1e-9)
	require.NotNil(t, rated.PairContextImpact)
	assert.Equal(t, 2, *rated.PairContextImpact)

	// Pair metrics are duplicated onto the without-context member.
	require.NotNil(t, snap.Data[1].PairContextImpact)
	assert.Equal(t, 2, *snap.Data[1].PairContextImpact)

	unrated := snap.Data[2]
	assert.Nil(t, unrated.Evaluation)
	assert.Nil(t, unrated.PairCorrectnessScore)

	assert.Equal(t, 3, snap.Summary.TotalResults)
	assert.Equal(t, 2, snap.Summary.TotalEvaluations)
	assert.Equal(t, 2, snap.Summary.EvaluatedResults)
	assert.Empty(t, snap.Evaluations)
}

func TestBuild_DuplicateRecordsShareOneStoredEvaluation(t *testing.T) {
	// Two records for the same key and context mode resolve to one grouped
	// slot; its single rating embeds on both records but counts once.
	records := []*models.RawRecord{
		{ItemID: "1", ModelName: "gpt", EmbeddingProvider: "cohere", WithContext: true},
		{ItemID: "1", ModelName: "gpt", EmbeddingProvider: "cohere", WithContext: true},
	}
	store := scorestore.Open("")
	_, err := store.Set(grouping.Group(records).Units[0], models.ModeWith, models.CategoryDirect)
	require.NoError(t, err)

	snap := Build(records, store)
	assert.Equal(t, 1, snap.Summary.TotalEvaluations)
	assert.Equal(t, 2, snap.Summary.EvaluatedResults)
	require.NotNil(t, snap.Data[0].Evaluation)
	require.NotNil(t, snap.Data[1].Evaluation)
}

func TestExportImportRoundTrip(t *testing.T) {
	records := sampleRecords()
	store := ratedStore(t, records)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Build(records, store)))

	res, err := Read(buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Records, 3)

	assert.Equal(t, "42", res.Records[0].ItemID)
	assert.True(t, res.Records[0].WithContext)
	assert.Equal(t, "a large red truck", res.Records[0].Response())
	require.Len(t, res.Records[0].SimilarItems, 1)
	assert.True(t, res.Records[2].Failed())

	// Scoring state survives the round trip exactly.
	assert.Equal(t, store.Snapshot(), res.Evaluations)
}

func TestRead_JSONL(t *testing.T) {
	input := `{"item_id":"1","model_name":"gpt","with_context":true}` + "\n" +
		`{"item_id":"1","model_name":"gpt","with_context":false}` + "\n"

	res, err := Read([]byte(input))
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	assert.Empty(t, res.Evaluations)
}

func TestRead_SingleRecordJSONL(t *testing.T) {
	// One line is still a record file, even though it also parses as a
	// single JSON object.
	input := `{"item_id":"1","model_name":"gpt","with_context":true}`

	res, err := Read([]byte(input))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "1", res.Records[0].ItemID)
	assert.Empty(t, res.Evaluations)
}

func TestRead_LegacyFlatEvaluations(t *testing.T) {
	legacy := map[string]any{
		"version":     VersionLegacy,
		"exported_at": time.Now().UTC().Format(time.RFC3339Nano),
		"data": []map[string]any{
			{"item_id": "1", "model_name": "gpt", "embedding_provider": "cohere", "with_context": true},
			{"item_id": "1", "model_name": "gpt", "embedding_provider": "cohere", "with_context": false},
		},
		"evaluations": map[string]string{
			"1-gpt-cohere-with":    "direct",
			"1-gpt-cohere-without": "2",
			"2-gpt-cohere-with":    "hallucination",
			"2-gpt-cohere-without": "banana",
		},
	}
	data, err := json.Marshal(legacy)
	require.NoError(t, err)

	res, err := Read(data)
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)

	assert.Equal(t, models.CategoryDirect, res.Evaluations["1-gpt-cohere-with"])
	assert.Equal(t, models.CategoryInferable, res.Evaluations["1-gpt-cohere-without"])
	assert.Equal(t, models.CategoryHallucinated, res.Evaluations["2-gpt-cohere-with"])
	assert.NotContains(t, res.Evaluations, "2-gpt-cohere-without")
	assert.Len(t, res.Warnings, 1)
}

func TestRead_EmbeddedEvaluationsWinOverLegacyMap(t *testing.T) {
	doc := map[string]any{
		"version":     Version,
		"exported_at": time.Now().UTC().Format(time.RFC3339Nano),
		"data": []map[string]any{
			{"item_id": "1", "model_name": "gpt", "embedding_provider": "cohere", "with_context": true, "evaluation": 3},
		},
		"evaluations": map[string]string{
			"1-gpt-cohere-with": "hallucination",
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	res, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryDirect, res.Evaluations["1-gpt-cohere-with"])
}

func TestRead_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty file", "   \n"},
		{"object that is neither snapshot nor record", `{"version":"2.0"}`},
		{"known version failing schema", `{"version":"2.0","data":"not an array"}`},
		{"malformed jsonl", "{broken\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestRead_UnknownVersionBestEffort(t *testing.T) {
	doc := map[string]any{
		"version": "9.9",
		"data": []map[string]any{
			{"item_id": "1", "model_name": "gpt", "with_context": true},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	res, err := Read(data)
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "9.9")
}

func TestFilename(t *testing.T) {
	ts := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "ragview_export_20250115_093000.json", Filename(ts))
}
