package scorestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionrag/ragview/internal/models"
)

func testUnit() *models.GroupedUnit {
	return &models.GroupedUnit{
		GroupID:           "42-modelA-cohere",
		ItemID:            "42",
		ModelName:         "modelA",
		EmbeddingProvider: "cohere",
	}
}

func TestStore_SetAndGet(t *testing.T) {
	s := Open("")
	g := testUnit()

	removed, err := s.Set(g, models.ModeWith, models.CategoryDirect)
	require.NoError(t, err)
	assert.False(t, removed)

	c, ok := s.Get(g, models.ModeWith)
	assert.True(t, ok)
	assert.Equal(t, models.CategoryDirect, c)

	_, ok = s.Get(g, models.ModeWithout)
	assert.False(t, ok)
}

func TestStore_SetToggle(t *testing.T) {
	s := Open("")
	g := testUnit()

	// Same category again removes the entry.
	_, err := s.Set(g, models.ModeWith, models.CategoryInferable)
	require.NoError(t, err)
	removed, err := s.Set(g, models.ModeWith, models.CategoryInferable)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, s.Len())

	// A different category replaces instead of toggling.
	_, err = s.Set(g, models.ModeWith, models.CategoryInferable)
	require.NoError(t, err)
	removed, err = s.Set(g, models.ModeWith, models.CategoryDirect)
	require.NoError(t, err)
	assert.False(t, removed)

	c, ok := s.Get(g, models.ModeWith)
	assert.True(t, ok)
	assert.Equal(t, models.CategoryDirect, c)
}

func TestStore_SetRejectsInvalidInput(t *testing.T) {
	s := Open("")
	g := testUnit()

	_, err := s.Set(g, models.ModeWith, models.Category("great"))
	assert.Error(t, err)

	_, err = s.Set(g, models.ContextMode("sideways"), models.CategoryDirect)
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	g := testUnit()

	s := Open(path)
	_, err := s.Set(g, models.ModeWith, models.CategoryDirect)
	require.NoError(t, err)
	_, err = s.Set(g, models.ModeWithout, models.CategoryHallucinated)
	require.NoError(t, err)

	reopened := Open(path)
	assert.Equal(t, 2, reopened.Len())

	c, ok := reopened.Get(g, models.ModeWithout)
	assert.True(t, ok)
	assert.Equal(t, models.CategoryHallucinated, c)
}

func TestStore_CreatesSessionDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")

	s := Open(path)
	_, err := s.Set(testUnit(), models.ModeWith, models.CategoryDirect)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := Open(path)
	assert.Equal(t, 0, s.Len())
}

func TestStore_InvalidCategoriesDroppedOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	data := `{"1-a-p-with": "direct", "2-a-p-with": "banana"}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	s := Open(path)
	assert.Equal(t, 1, s.Len())
}

func TestStore_ClearAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	g := testUnit()

	s := Open(path)
	_, err := s.Set(g, models.ModeWith, models.CategoryDirect)
	require.NoError(t, err)
	require.NoError(t, s.ClearAll())
	assert.Equal(t, 0, s.Len())

	// Clearing persists too.
	assert.Equal(t, 0, Open(path).Len())
}

func TestStore_ReplaceAll(t *testing.T) {
	s := Open("")
	_, err := s.Set(testUnit(), models.ModeWith, models.CategoryDirect)
	require.NoError(t, err)

	err = s.ReplaceAll(map[string]models.Category{
		"7-m-p-with":    models.CategoryInferable,
		"7-m-p-without": models.CategoryMissing,
		"8-m-p-with":    models.Category("bogus"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	snap := s.Snapshot()
	assert.Equal(t, models.CategoryInferable, snap["7-m-p-with"])
	assert.NotContains(t, snap, "42-modelA-cohere-with")
}

func TestStore_ReplaceAllRollsBackOnPersistFailure(t *testing.T) {
	// A regular file where a directory is needed makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	s := Open(filepath.Join(blocker, "nested", "session.json"))
	err := s.ReplaceAll(map[string]models.Category{
		"1-m-p-with": models.CategoryDirect,
	})
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := Open("")
	_, err := s.Set(testUnit(), models.ModeWith, models.CategoryDirect)
	require.NoError(t, err)

	snap := s.Snapshot()
	snap["mutated"] = models.CategoryDirect
	assert.Equal(t, 1, s.Len())
}

func TestStore_SubscribeNotifiesOnMutation(t *testing.T) {
	s := Open("")
	g := testUnit()

	calls := 0
	unsubscribe := s.Subscribe(func() { calls++ })

	_, err := s.Set(g, models.ModeWith, models.CategoryDirect)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	require.NoError(t, s.ClearAll())
	assert.Equal(t, 2, calls)

	unsubscribe()
	_, err = s.Set(g, models.ModeWith, models.CategoryDirect)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
