package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamestore"
)

var testSchema = gamestore.MustSchema("game_metadata",
	gamestore.FieldOf("title", ""),
	gamestore.FieldOf("developer", ""),
	gamestore.IntegerField("score"),
)

func seed(t *testing.T, repo *Repository, fields ...map[string]any) {
	t.Helper()
	ctx := context.Background()
	for _, f := range fields {
		_, err := repo.Create(ctx, gamestore.NewRecord(f))
		require.NoError(t, err)
	}
}

func TestCreateAssignsIDsAndTimestamps(t *testing.T) {
	repo := New(testSchema)
	ctx := context.Background()

	first, err := repo.Create(ctx, gamestore.NewRecord(map[string]any{"title": "Hades"}))
	require.NoError(t, err)
	second, err := repo.Create(ctx, gamestore.NewRecord(map[string]any{"title": "Celeste"}))
	require.NoError(t, err)

	assert.EqualValues(t, 1, first.ID)
	assert.EqualValues(t, 2, second.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)
	assert.Nil(t, first.DeletedAt)
}

func TestCreateRejectsCallerID(t *testing.T) {
	repo := New(testSchema)
	rec := gamestore.NewRecord(nil)
	rec.ID = 42

	_, err := repo.Create(context.Background(), rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, gamestore.ErrValidation)
}

func TestCallerCannotMutateStoredState(t *testing.T) {
	repo := New(testSchema)
	ctx := context.Background()

	created, err := repo.Create(ctx, gamestore.NewRecord(map[string]any{"title": "Hades"}))
	require.NoError(t, err)
	created.Fields["title"] = "changed"

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hades", got.Fields["title"])

	got.Fields["title"] = "changed again"
	again, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hades", again.Fields["title"])
}

func TestCreateAppliesSchemaDefaults(t *testing.T) {
	schema := gamestore.MustSchema("game_backlog_entry",
		gamestore.FieldOf("status", "inbox"),
		gamestore.IntegerField("backlog"),
	)
	repo := New(schema)
	ctx := context.Background()

	created, err := repo.Create(ctx, gamestore.NewRecord(map[string]any{"backlog": int64(1)}))
	require.NoError(t, err)
	assert.Equal(t, "inbox", created.Fields["status"])

	// Defaults are stored, not just returned, so filters see them.
	n, err := repo.Count(ctx, gamestore.Where(gamestore.Eq("status", "inbox")))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCreateDropsUndeclaredFields(t *testing.T) {
	repo := New(testSchema)
	ctx := context.Background()

	created, err := repo.Create(ctx, gamestore.NewRecord(map[string]any{
		"title": "Hades", "legacy": "x",
	}))
	require.NoError(t, err)
	_, present := created.Fields["legacy"]
	assert.False(t, present)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	_, present = got.Fields["legacy"]
	assert.False(t, present)
}

func TestUpdateMergesPatch(t *testing.T) {
	repo := New(testSchema)
	ctx := context.Background()
	seed(t, repo, map[string]any{"title": "Hades", "developer": "Supergiant"})

	updated, err := repo.Update(ctx, 1, map[string]any{"title": "Hades II"})
	require.NoError(t, err)
	assert.Equal(t, "Hades II", updated.Fields["title"])
	assert.Equal(t, "Supergiant", updated.Fields["developer"])
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	_, err = repo.Update(ctx, 99, map[string]any{"title": "x"})
	assert.True(t, gamestore.IsNotFound(err))
}

func TestUpdateIgnoresUndeclaredKeys(t *testing.T) {
	repo := New(testSchema)
	ctx := context.Background()
	seed(t, repo, map[string]any{"title": "Hades"})

	updated, err := repo.Update(ctx, 1, map[string]any{"legacy": "x", "title": "Hades II"})
	require.NoError(t, err)
	assert.Equal(t, "Hades II", updated.Fields["title"])
	_, present := updated.Fields["legacy"]
	assert.False(t, present)
}

func TestDeleteHardAndSoft(t *testing.T) {
	repo := New(testSchema)
	ctx := context.Background()
	seed(t, repo, map[string]any{"title": "a"}, map[string]any{"title": "b"})

	ok, err := repo.Delete(ctx, 1, false)
	require.NoError(t, err)
	assert.True(t, ok)
	got, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	ok, err = repo.Delete(ctx, 2, true)
	require.NoError(t, err)
	assert.True(t, ok)
	got, err = repo.GetByID(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.DeletedAt)

	// Soft-deleted records stay visible to filters on deleted_at.
	n, err := repo.Count(ctx, gamestore.Where(gamestore.NotNull("deleted_at")))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ok, err = repo.Delete(ctx, 99, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetManyByIDs(t *testing.T) {
	repo := New(testSchema)
	ctx := context.Background()
	seed(t, repo, map[string]any{"title": "a"}, map[string]any{"title": "b"}, map[string]any{"title": "c"})

	got, err := repo.GetManyByIDs(ctx, []int64{3, 1, 3, 99})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.EqualValues(t, 1, got[0].ID)
	assert.EqualValues(t, 3, got[1].ID)
}

func TestListAllOrders(t *testing.T) {
	repo := New(testSchema)
	ctx := context.Background()
	seed(t, repo, map[string]any{"title": "a"}, map[string]any{"title": "b"})

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.EqualValues(t, 1, all[0].ID)
	assert.EqualValues(t, 2, all[1].ID)
}

func TestExistsAndCount(t *testing.T) {
	repo := New(testSchema)
	ctx := context.Background()
	seed(t, repo, map[string]any{"score": int64(10)}, map[string]any{"score": int64(30)})

	ok, err := repo.Exists(ctx, gamestore.Where(gamestore.Gt("score", 20)))
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := repo.Count(ctx, gamestore.Where(gamestore.Gt("score", 0)))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	ok, err = repo.Exists(ctx, gamestore.Where(gamestore.Gt("score", 100)))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindPaginates(t *testing.T) {
	repo := New(testSchema)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		seed(t, repo, map[string]any{"score": int64(i * 10)})
	}

	page, err := repo.Find(ctx, gamestore.Where(gamestore.Gte("score", 10)),
		gamestore.OrderBy("id"), gamestore.Limit(2))
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.EqualValues(t, 4, page.Total)
	assert.True(t, page.HasNext)
	assert.EqualValues(t, 2, page.Items[0].ID)

	page, err = repo.Find(ctx, gamestore.Where(gamestore.Gte("score", 10)),
		gamestore.OrderBy("id"), gamestore.Limit(2), gamestore.After(page.NextCursor))
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.EqualValues(t, 4, page.Items[0].ID)
}

func TestAtomicRollsBackOnError(t *testing.T) {
	repo := New(testSchema)
	ctx := context.Background()
	seed(t, repo, map[string]any{"title": "keep"})

	boom := errors.New("boom")
	err := repo.Atomic(ctx, func(ctx context.Context) error {
		if _, err := repo.Create(ctx, gamestore.NewRecord(map[string]any{"title": "discard"})); err != nil {
			return err
		}
		if _, err := repo.Update(ctx, 1, map[string]any{"title": "changed"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "keep", all[0].Fields["title"])

	// Ids assigned in the rolled-back scope are reusable afterwards.
	created, err := repo.Create(ctx, gamestore.NewRecord(map[string]any{"title": "next"}))
	require.NoError(t, err)
	assert.EqualValues(t, 2, created.ID)
}

func TestAtomicCommitsOnSuccess(t *testing.T) {
	repo := New(testSchema)
	ctx := context.Background()

	err := repo.Atomic(ctx, func(ctx context.Context) error {
		_, err := repo.Create(ctx, gamestore.NewRecord(map[string]any{"title": "kept"}))
		return err
	})
	require.NoError(t, err)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
