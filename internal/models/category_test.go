package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryPoints(t *testing.T) {
	tests := []struct {
		category Category
		points   int
	}{
		{CategoryDirect, 3},
		{CategoryInferable, 2},
		{CategoryMissing, 1},
		{CategoryHallucinated, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.points, tt.category.Points())
			assert.True(t, tt.category.Valid())
		})
	}
}

func TestCategoryFromPoints_Inverse(t *testing.T) {
	for _, c := range Categories {
		got, ok := CategoryFromPoints(c.Points())
		require.True(t, ok)
		assert.Equal(t, c, got)
	}

	_, ok := CategoryFromPoints(4)
	assert.False(t, ok)
	_, ok = CategoryFromPoints(-1)
	assert.False(t, ok)
}

func TestCategoryValid_Unknown(t *testing.T) {
	assert.False(t, Category("partial").Valid())
	assert.False(t, Category("").Valid())
}

func TestEvaluationKey(t *testing.T) {
	assert.Equal(t, "42-modelA-cohere-with", EvaluationKey("42", "modelA", "cohere", ModeWith))
	assert.Equal(t, "42-modelA-cohere-without", EvaluationKey("42", "modelA", "cohere", ModeWithout))
}

func TestRawRecord_Accessors(t *testing.T) {
	errMsg := "timeout"
	rec := &RawRecord{ItemID: "7", ModelName: "m", EmbeddingProvider: "voyage", WithContext: true, Error: &errMsg}

	assert.Equal(t, "7-m-voyage", rec.GroupKey())
	assert.Equal(t, ModeWith, rec.Mode())
	assert.True(t, rec.Failed())
	assert.Equal(t, "", rec.Response())

	resp := "A white truck."
	rec.ResponseText = &resp
	assert.Equal(t, "A white truck.", rec.Response())
}
