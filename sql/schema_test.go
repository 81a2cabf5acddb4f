package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamestore"
	"gamestore/sql/adapter"
)

func TestCreateTableSQLSQLite(t *testing.T) {
	ddl, err := CreateTableSQL(gamestore.GameBacklogEntrySchema, adapter.NewSQLiteAdapter())
	require.NoError(t, err)

	want := `CREATE TABLE IF NOT EXISTS game_backlog_entry (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  created_at TEXT,
  updated_at TEXT,
  deleted_at TEXT,
  meta_data INTEGER,
  priority INTEGER DEFAULT 2,
  status TEXT DEFAULT 'inbox',
  backlog INTEGER
)`
	assert.Equal(t, want, ddl)
}

func TestCreateTableSQLPostgres(t *testing.T) {
	ddl, err := CreateTableSQL(gamestore.PlaySessionSchema, adapter.NewPostgresAdapter())
	require.NoError(t, err)

	want := `CREATE TABLE IF NOT EXISTS play_session (
  id BIGSERIAL PRIMARY KEY,
  created_at TEXT,
  updated_at TEXT,
  deleted_at TEXT,
  session_start TEXT,
  session_end TEXT,
  backlog_entry INTEGER
)`
	assert.Equal(t, want, ddl)
}

func TestCreateTableSQLDefaults(t *testing.T) {
	schema := gamestore.MustSchema("sample",
		gamestore.FieldOf("title", "it's fine"),
		gamestore.FieldOf("rank", 7),
		gamestore.FieldOf("rating", 4.5),
		gamestore.FieldOf("done", false),
		gamestore.ListField("tags", gamestore.TextColumn{}),
	)
	ddl, err := CreateTableSQL(schema, adapter.NewSQLiteAdapter())
	require.NoError(t, err)

	// Quotes in text defaults are doubled; empty list defaults are
	// omitted entirely.
	assert.Contains(t, ddl, "title TEXT DEFAULT 'it''s fine'")
	assert.Contains(t, ddl, "rank INTEGER DEFAULT 7")
	assert.Contains(t, ddl, "rating REAL DEFAULT 4.5")
	assert.Contains(t, ddl, "done INTEGER DEFAULT 0")
	assert.Contains(t, ddl, "tags TEXT\n)")
}

func TestCreateTableSQLRejectsEmptyEnum(t *testing.T) {
	schema := gamestore.MustSchema("broken",
		gamestore.EnumField("state", gamestore.NewEnumType("Empty")),
	)
	_, err := CreateTableSQL(schema, adapter.NewSQLiteAdapter())
	assert.True(t, gamestore.IsSchema(err))
}
