package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paladarnegro/plantel/models"
	"github.com/paladarnegro/plantel/roster"
)

// liveStore connects to PLANTEL_TEST_DATABASE_URL; the tests are skipped
// without it. The database must be disposable.
func liveStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("PLANTEL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PLANTEL_TEST_DATABASE_URL not set")
	}
	bdb := Open(dsn, false)
	t.Cleanup(func() { _ = bdb.Close() })

	ctx := context.Background()
	require.NoError(t, bdb.PingContext(ctx))
	require.NoError(t, CreateTables(ctx, bdb))
	return NewStore(bdb)
}

func categoryIDs(t *testing.T, s *Store, names ...string) []int {
	t.Helper()
	cats, err := s.CategoriesByName(context.Background(), names)
	require.NoError(t, err)
	require.Len(t, cats, len(names))
	ids := make([]int, 0, len(cats))
	for _, c := range cats {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestStorePlayerLifecycle(t *testing.T) {
	s := liveStore(t)
	ctx := context.Background()

	p := &models.Player{
		Name:     "Santiago",
		Surname:  "Montiel",
		Position: 4,
		Birthday: time.Date(2008, time.April, 12, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.InsertPlayer(ctx, p, categoryIDs(t, s, "cuarta", "quinta")))
	t.Cleanup(func() { _ = s.DeletePlayer(context.Background(), p.ID) })

	got, err := s.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"cuarta", "quinta"}, got.CategoryNames())
	assert.Equal(t, "2008-04-12", got.Birthday.Format(roster.DateLayout))

	t.Run("failed link insert rolls back the update", func(t *testing.T) {
		name := "Otro"
		err := s.UpdatePlayer(ctx, p.ID, roster.Changes{
			Name:              &name,
			ReplaceCategories: true,
			CategoryIDs:       []int{-1},
		})
		require.Error(t, err)

		got, err := s.GetPlayer(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Santiago", got.Name)
		assert.Equal(t, []string{"cuarta", "quinta"}, got.CategoryNames())
	})

	t.Run("replace categories", func(t *testing.T) {
		require.NoError(t, s.UpdatePlayer(ctx, p.ID, roster.Changes{
			ReplaceCategories: true,
			CategoryIDs:       categoryIDs(t, s, "sexta"),
		}))
		got, err := s.GetPlayer(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"sexta"}, got.CategoryNames())
	})

	t.Run("born between", func(t *testing.T) {
		players, err := s.PlayersBornBetween(ctx,
			time.Date(2008, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2008, time.December, 31, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		var ids []int
		for _, pl := range players {
			ids = append(ids, pl.ID)
		}
		assert.Contains(t, ids, p.ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeletePlayer(ctx, p.ID))
		_, err := s.GetPlayer(ctx, p.ID)
		assert.ErrorIs(t, err, roster.ErrPlayerNotFound)
		assert.ErrorIs(t, s.DeletePlayer(ctx, p.ID), roster.ErrPlayerNotFound)
		assert.ErrorIs(t, s.UpdatePlayer(ctx, p.ID, roster.Changes{Name: &p.Name}), roster.ErrPlayerNotFound)
	})
}
