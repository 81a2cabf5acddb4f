package gamestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalRecord(fields map[string]any) *Record {
	return NewRecord(fields)
}

func mustMatch(t *testing.T, rec *Record, f Filter) bool {
	t.Helper()
	ok, err := Evaluate(rec, f)
	require.NoError(t, err)
	return ok
}

func TestEvaluateEmptyFilterMatchesAll(t *testing.T) {
	assert.True(t, mustMatch(t, evalRecord(nil), Filter{}))
}

func TestEvaluateComparisons(t *testing.T) {
	rec := evalRecord(map[string]any{"score": int64(25), "name": "Alpha"})

	assert.True(t, mustMatch(t, rec, Where(Eq("score", 25))))
	assert.True(t, mustMatch(t, rec, Where(Eq("score", 25.0))))
	assert.False(t, mustMatch(t, rec, Where(Neq("score", 25))))
	assert.True(t, mustMatch(t, rec, Where(Gt("score", 20))))
	assert.False(t, mustMatch(t, rec, Where(Gt("score", 25))))
	assert.True(t, mustMatch(t, rec, Where(Gte("score", 25))))
	assert.True(t, mustMatch(t, rec, Where(Lt("score", 30))))
	assert.True(t, mustMatch(t, rec, Where(Lte("score", 25))))
	assert.True(t, mustMatch(t, rec, Where(Eq("name", "Alpha"))))
	assert.False(t, mustMatch(t, rec, Where(Eq("name", "alpha"))))
}

func TestEvaluateNullSemantics(t *testing.T) {
	present := evalRecord(map[string]any{"due": "soon"})
	explicitNil := evalRecord(map[string]any{"due": nil})
	absent := evalRecord(map[string]any{})

	// eq nil behaves as the null test.
	assert.False(t, mustMatch(t, present, Where(Eq("due", nil))))
	assert.True(t, mustMatch(t, explicitNil, Where(Eq("due", nil))))
	assert.True(t, mustMatch(t, absent, Where(Eq("due", nil))))

	// neq nil behaves as the not-null test.
	assert.True(t, mustMatch(t, present, Where(Neq("due", nil))))
	assert.False(t, mustMatch(t, absent, Where(Neq("due", nil))))

	assert.True(t, mustMatch(t, explicitNil, Where(IsNull("due"))))
	assert.True(t, mustMatch(t, absent, Where(IsNull("due"))))
	assert.False(t, mustMatch(t, present, Where(IsNull("due"))))
	assert.True(t, mustMatch(t, present, Where(NotNull("due"))))
	assert.False(t, mustMatch(t, absent, Where(NotNull("due"))))
}

func TestEvaluateOrderingAgainstNil(t *testing.T) {
	absent := evalRecord(map[string]any{})

	// Ordering comparisons against a missing value never match.
	assert.False(t, mustMatch(t, absent, Where(Gt("score", 1))))
	assert.False(t, mustMatch(t, absent, Where(Lt("score", 1))))
	assert.False(t, mustMatch(t, absent, Where(Lte("score", 1))))
	assert.False(t, mustMatch(t, absent, Where(Gte("score", 1))))

	// A nil value also mismatches neq's complement rule: it matches.
	assert.True(t, mustMatch(t, absent, Where(Neq("score", 1))))
}

func TestEvaluateMembership(t *testing.T) {
	rec := evalRecord(map[string]any{"status": "playing"})

	assert.True(t, mustMatch(t, rec, Where(In("status", "playing", "paused"))))
	assert.False(t, mustMatch(t, rec, Where(In("status", "finished"))))
	assert.False(t, mustMatch(t, rec, Where(In("status"))))
	assert.True(t, mustMatch(t, rec, Where(NotIn("status", "finished"))))
	assert.False(t, mustMatch(t, rec, Where(NotIn("status", "playing"))))

	absent := evalRecord(map[string]any{})
	assert.False(t, mustMatch(t, absent, Where(In("status", "playing"))))
	assert.True(t, mustMatch(t, absent, Where(NotIn("status", "playing"))))
}

func TestEvaluateStringOperators(t *testing.T) {
	rec := evalRecord(map[string]any{"name": "Hollow Knight"})

	assert.True(t, mustMatch(t, rec, Where(Contains("name", "low K"))))
	assert.False(t, mustMatch(t, rec, Where(Contains("name", "LOW"))))
	assert.True(t, mustMatch(t, rec, Where(IContains("name", "LOW"))))
	assert.True(t, mustMatch(t, rec, Where(StartsWith("name", "Hollow"))))
	assert.False(t, mustMatch(t, rec, Where(StartsWith("name", "hollow"))))
	assert.True(t, mustMatch(t, rec, Where(IStartsWith("name", "HOLLOW"))))
	assert.True(t, mustMatch(t, rec, Where(EndsWith("name", "Knight"))))
	assert.True(t, mustMatch(t, rec, Where(IEndsWith("name", "KNIGHT"))))

	// String operators on non-string values never match.
	numeric := evalRecord(map[string]any{"name": int64(3)})
	assert.False(t, mustMatch(t, numeric, Where(Contains("name", "3"))))
}

func TestEvaluateContainsOnList(t *testing.T) {
	rec := evalRecord(map[string]any{"genres": []any{"rpg", "indie"}})

	assert.True(t, mustMatch(t, rec, Where(Contains("genres", "rpg"))))
	assert.False(t, mustMatch(t, rec, Where(Contains("genres", "sports"))))
}

func TestEvaluateEnumValues(t *testing.T) {
	playing, _ := BacklogStatus.Member("PLAYING")
	rec := evalRecord(map[string]any{"status": playing})

	assert.True(t, mustMatch(t, rec, Where(Eq("status", "playing"))))
	assert.True(t, mustMatch(t, rec, Where(Eq("status", playing))))
	assert.False(t, mustMatch(t, rec, Where(Eq("status", "paused"))))

	// Members also answer to their symbolic name, but names never fold case.
	assert.True(t, mustMatch(t, rec, Where(Eq("status", "PLAYING"))))
	assert.False(t, mustMatch(t, rec, Where(Eq("status", "Playing"))))
	assert.False(t, mustMatch(t, rec, Where(Neq("status", "PLAYING"))))

	p1, _ := BacklogPriority.Member("P1")
	prioritized := evalRecord(map[string]any{"priority": p1})
	assert.True(t, mustMatch(t, prioritized, Where(Lte("priority", 2))))
	assert.False(t, mustMatch(t, prioritized, Where(Gt("priority", 1))))
}

func TestEvaluateTimeValues(t *testing.T) {
	start := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	rec := evalRecord(map[string]any{"session_start": start})

	assert.True(t, mustMatch(t, rec, Where(Gt("session_start", start.Add(-time.Hour)))))
	assert.False(t, mustMatch(t, rec, Where(Gt("session_start", start))))
	assert.True(t, mustMatch(t, rec, Where(Eq("session_start", start))))
}

func TestEvaluateManagedColumns(t *testing.T) {
	rec := evalRecord(nil)
	rec.ID = 7
	rec.CreatedAt = Now()

	assert.True(t, mustMatch(t, rec, Where(Gte("id", 7))))
	assert.True(t, mustMatch(t, rec, Where(IsNull("deleted_at"))))

	now := Now()
	rec.DeletedAt = &now
	assert.True(t, mustMatch(t, rec, Where(NotNull("deleted_at"))))
}

func TestEvaluateUnknownOperator(t *testing.T) {
	rec := evalRecord(map[string]any{"score": int64(1)})
	_, err := Evaluate(rec, Where(Condition{Field: "score", Op: "between", Value: 1}))
	require.Error(t, err)
	assert.True(t, IsUnsupportedOperator(err))
}
