package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLine = `{"item_id":"42","model_name":"gpt","embedding_provider":"cohere","with_context":true,"question_text":"What is this?","response_text":"a truck","processing_time_seconds":1.5,"similar_items":[{"id":"7","distance":0.3}]}`

func TestParse(t *testing.T) {
	input := sampleLine + "\n" +
		`{"item_id":"42","model_name":"gpt","embedding_provider":"cohere","with_context":false,"response_text":null,"error":"timed out"}` + "\n"

	records, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "42", first.ItemID)
	assert.True(t, first.WithContext)
	assert.Equal(t, "a truck", first.Response())
	require.Len(t, first.SimilarItems, 1)
	assert.Equal(t, 0.3, first.SimilarItems[0].Distance)

	second := records[1]
	assert.False(t, second.WithContext)
	assert.Nil(t, second.ResponseText)
	assert.True(t, second.Failed())
}

func TestParse_SkipsBlankLines(t *testing.T) {
	input := "\n" + sampleLine + "\n\n   \n"
	records, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestParse_MalformedLineFailsWholeLoad(t *testing.T) {
	input := sampleLine + "\n{broken\n"
	records, err := Parse(strings.NewReader(input))
	assert.Nil(t, records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "missing item_id",
			line: `{"model_name":"gpt"}`,
			want: "item_id",
		},
		{
			name: "missing model_name",
			line: `{"item_id":"42"}`,
			want: "model_name",
		},
		{
			name: "negative processing time",
			line: `{"item_id":"42","model_name":"gpt","processing_time_seconds":-1}`,
			want: "negative processing time",
		},
		{
			name: "similar items without context",
			line: `{"item_id":"42","model_name":"gpt","with_context":false,"similar_items":[{"id":"7","distance":0.1}]}`,
			want: "similar_items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.line + "\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validation_evaluation_20250115_093000.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(sampleLine+"\n"), 0o644))

	records, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoad_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(sampleLine + "\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	records, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "42", records[0].ItemID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}
