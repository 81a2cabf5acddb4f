package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamestore"
	"gamestore/sql/adapter"
)

func renderFilter(t *testing.T, a adapter.Adapter, f gamestore.Filter) (string, []any) {
	t.Helper()
	codec := NewCodec(gamestore.GameMetadataSchema)
	expr, err := CompileFilter(gamestore.GameMetadataSchema, codec, f)
	require.NoError(t, err)
	clause, args, err := Render(expr, a, 0)
	require.NoError(t, err)
	return clause, args
}

func TestRenderComparisons(t *testing.T) {
	a := adapter.NewSQLiteAdapter()

	clause, args := renderFilter(t, a, gamestore.Where(gamestore.Eq("title", "Hades")))
	assert.Equal(t, "(title = ?)", clause)
	assert.Equal(t, []any{"Hades"}, args)

	clause, args = renderFilter(t, a, gamestore.Where(
		gamestore.Gt("avg_completion_time", 20),
		gamestore.Lte("avg_completion_time", 60),
	))
	assert.Equal(t, "(avg_completion_time > ?) AND (avg_completion_time <= ?)", clause)
	assert.Equal(t, []any{float64(20), float64(60)}, args)
}

func TestRenderPlaceholderStyles(t *testing.T) {
	f := gamestore.Where(gamestore.Eq("title", "a"), gamestore.Neq("developer", "b"))

	clause, _ := renderFilter(t, adapter.NewSQLiteAdapter(), f)
	assert.Equal(t, "(title = ?) AND ((developer IS NULL) OR (developer <> ?))", clause)

	clause, _ = renderFilter(t, adapter.NewPostgresAdapter(), f)
	assert.Equal(t, "(title = $1) AND ((developer IS NULL) OR (developer <> $2))", clause)
}

func TestRenderNullTests(t *testing.T) {
	a := adapter.NewSQLiteAdapter()

	clause, args := renderFilter(t, a, gamestore.Where(gamestore.Eq("release_date", nil)))
	assert.Equal(t, "(release_date IS NULL)", clause)
	assert.Empty(t, args)

	clause, _ = renderFilter(t, a, gamestore.Where(gamestore.Neq("release_date", nil)))
	assert.Equal(t, "(release_date IS NOT NULL)", clause)

	clause, _ = renderFilter(t, a, gamestore.Where(gamestore.IsNull("release_date")))
	assert.Equal(t, "(release_date IS NULL)", clause)

	clause, _ = renderFilter(t, a, gamestore.Where(gamestore.NotNull("release_date")))
	assert.Equal(t, "(release_date IS NOT NULL)", clause)
}

func TestRenderMembership(t *testing.T) {
	a := adapter.NewSQLiteAdapter()

	clause, args := renderFilter(t, a, gamestore.Where(gamestore.In("title", "a", "b")))
	assert.Equal(t, "(title IN (?, ?))", clause)
	assert.Equal(t, []any{"a", "b"}, args)

	clause, args = renderFilter(t, a, gamestore.Where(gamestore.NotIn("title", "a")))
	assert.Equal(t, "((title IS NULL) OR (title NOT IN (?)))", clause)
	assert.Equal(t, []any{"a"}, args)

	// Empty membership sets render constant predicates.
	clause, args = renderFilter(t, a, gamestore.Where(gamestore.In("title")))
	assert.Equal(t, "(1=0)", clause)
	assert.Empty(t, args)

	clause, _ = renderFilter(t, a, gamestore.Where(gamestore.NotIn("title")))
	assert.Equal(t, "((title IS NULL) OR (1=1))", clause)
}

func TestRenderStringOperators(t *testing.T) {
	a := adapter.NewSQLiteAdapter()

	clause, args := renderFilter(t, a, gamestore.Where(gamestore.Contains("title", "lo")))
	assert.Equal(t, "(title LIKE ? ESCAPE '!')", clause)
	assert.Equal(t, []any{"%lo%"}, args)

	clause, args = renderFilter(t, a, gamestore.Where(gamestore.IStartsWith("title", "ha")))
	assert.Equal(t, "(LOWER(title) LIKE LOWER(?) ESCAPE '!')", clause)
	assert.Equal(t, []any{"ha%"}, args)

	clause, args = renderFilter(t, a, gamestore.Where(gamestore.EndsWith("title", "es")))
	assert.Equal(t, "(title LIKE ? ESCAPE '!')", clause)
	assert.Equal(t, []any{"%es"}, args)

	// MySQL folds case under its default collations, so the case-sensitive
	// variants force a binary comparison there.
	clause, _ = renderFilter(t, adapter.NewMySQLAdapter(),
		gamestore.Where(gamestore.StartsWith("title", "Ha")))
	assert.Equal(t, "(title LIKE BINARY ? ESCAPE '!')", clause)
}

func TestRenderEscapesLikeWildcards(t *testing.T) {
	a := adapter.NewSQLiteAdapter()

	_, args := renderFilter(t, a, gamestore.Where(gamestore.Contains("title", "50%_done!")))
	assert.Equal(t, []any{"%50!%!_done!!%"}, args)
}

func TestRenderEmptyFilter(t *testing.T) {
	clause, args := renderFilter(t, adapter.NewSQLiteAdapter(), gamestore.Filter{})
	assert.Equal(t, "1=1", clause)
	assert.Empty(t, args)
}

func TestCompileEncodesOperands(t *testing.T) {
	codec := NewCodec(gamestore.GameBacklogEntrySchema)
	p1, _ := gamestore.BacklogPriority.Member("P1")

	expr, err := CompileFilter(gamestore.GameBacklogEntrySchema, codec,
		gamestore.Where(gamestore.Eq("priority", p1)))
	require.NoError(t, err)
	_, args, err := Render(expr, adapter.NewSQLiteAdapter(), 0)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, args)
}

func TestCompileRejectsListColumns(t *testing.T) {
	codec := NewCodec(gamestore.GameMetadataSchema)
	_, err := CompileFilter(gamestore.GameMetadataSchema, codec,
		gamestore.Where(gamestore.Contains("genres", "rpg")))
	assert.True(t, gamestore.IsUnsupportedOperator(err))
}

func TestCompileRejectsUnknownColumns(t *testing.T) {
	codec := NewCodec(gamestore.GameMetadataSchema)
	_, err := CompileFilter(gamestore.GameMetadataSchema, codec,
		gamestore.Where(gamestore.Eq("no_such_column", 1)))
	assert.True(t, gamestore.IsUnsupportedOperator(err))
}

func TestCompileRejectsUnknownOperator(t *testing.T) {
	codec := NewCodec(gamestore.GameMetadataSchema)
	_, err := CompileFilter(gamestore.GameMetadataSchema, codec,
		gamestore.Where(gamestore.Condition{Field: "title", Op: "between", Value: 1}))
	assert.True(t, gamestore.IsUnsupportedOperator(err))
}
