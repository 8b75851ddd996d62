package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/adreview/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))

	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "subdir", "test.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestSaveAndListResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	decided := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	in := []models.ResultRecord{
		{
			ID:               "01JTESTA",
			ItemName:         "a.mp4",
			Decision:         models.DecisionAccept,
			TimeSpentSeconds: 12.3,
			DecidedAt:        decided,
			Criteria: []models.CriterionEntry{
				{Label: "Hook", Rating: "4", Note: "good"},
				{Label: "Audio"},
			},
		},
		{
			ItemName:         "b.mp4",
			Decision:         models.DecisionReject,
			TimeSpentSeconds: 0,
			Criteria:         []models.CriterionEntry{{Label: "Hook", Rating: "1"}},
		},
	}
	require.NoError(t, s.SaveResults(ctx, in))

	out, err := s.ListResults(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "01JTESTA", out[0].ID)
	assert.Equal(t, "a.mp4", out[0].ItemName)
	assert.Equal(t, models.DecisionAccept, out[0].Decision)
	assert.Equal(t, 12.3, out[0].TimeSpentSeconds)
	assert.True(t, decided.Equal(out[0].DecidedAt))
	assert.Equal(t, in[0].Criteria, out[0].Criteria)

	assert.NotEmpty(t, out[1].ID, "missing IDs are generated")
	assert.Equal(t, models.DecisionReject, out[1].Decision)
	assert.Len(t, out[1].Criteria, 1)
}

func TestSaveResults_AppendsInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveResults(ctx, []models.ResultRecord{{ItemName: "first", Decision: models.DecisionAccept}}))
	require.NoError(t, s.SaveResults(ctx, []models.ResultRecord{{ItemName: "second", Decision: models.DecisionReject}}))

	out, err := s.ListResults(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].ItemName)
	assert.Equal(t, "second", out[1].ItemName)
}

func TestSaveResults_RejectsInvalidDecision(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveResults(context.Background(), []models.ResultRecord{{ItemName: "x", Decision: "maybe"}})
	assert.Error(t, err)

	out, err := s.ListResults(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out, "failed batch is rolled back")
}
