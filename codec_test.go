package gamestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metadataRecord() *Record {
	rpg, _ := Genre.Member("RPG")
	indie, _ := Genre.Member("INDIE")
	pc, _ := Platform.Member("PC")
	rec := NewRecord(map[string]any{
		"title":               "Disco Elysium",
		"description":         "detective RPG",
		"cover_url":           "",
		"release_date":        time.Date(2019, 10, 15, 0, 0, 0, 0, time.UTC),
		"developer":           "ZA/UM",
		"publisher":           "ZA/UM",
		"avg_completion_time": 30.5,
		"genres":              []any{rpg, indie},
		"platforms":           []any{pc},
	})
	rec.ID = 3
	rec.CreatedAt = Now()
	rec.UpdatedAt = Now()
	return rec
}

func TestCodecRoundTripByValue(t *testing.T) {
	codec := &Codec{Schema: GameMetadataSchema}

	doc, err := codec.EncodeDocument(metadataRecord())
	require.NoError(t, err)
	assert.Equal(t, int64(3), doc["id"])
	assert.Equal(t, "2019-10-15T00:00:00Z", doc["release_date"])
	assert.Equal(t, []any{"rpg", "indie"}, doc["genres"])
	assert.Nil(t, doc["deleted_at"])

	back, err := codec.DecodeDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, int64(3), back.ID)
	assert.Equal(t, "Disco Elysium", back.Fields["title"])
	assert.Equal(t, 30.5, back.Fields["avg_completion_time"])

	genres, ok := back.Fields["genres"].([]any)
	require.True(t, ok)
	require.Len(t, genres, 2)
	assert.Equal(t, Enum{Name: "RPG", Value: "rpg"}, genres[0])

	rd, ok := back.Fields["release_date"].(time.Time)
	require.True(t, ok)
	assert.True(t, rd.Equal(time.Date(2019, 10, 15, 0, 0, 0, 0, time.UTC)))
}

func TestCodecRoundTripByName(t *testing.T) {
	codec := &Codec{Schema: GameBacklogEntrySchema, EnumAsName: true}
	p0, _ := BacklogPriority.Member("P0")
	playing, _ := BacklogStatus.Member("PLAYING")
	rec := NewRecord(map[string]any{
		"meta_data": int64(9),
		"priority":  p0,
		"status":    playing,
		"backlog":   int64(1),
	})
	rec.ID = 1

	doc, err := codec.EncodeDocument(rec)
	require.NoError(t, err)
	assert.Equal(t, "P0", doc["priority"])
	assert.Equal(t, "PLAYING", doc["status"])

	back, err := codec.DecodeDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, p0, back.Fields["priority"])
	assert.Equal(t, playing, back.Fields["status"])
}

func TestCodecFillsDefaultsForMissingKeys(t *testing.T) {
	codec := &Codec{Schema: GameBacklogEntrySchema}
	back, err := codec.DecodeDocument(map[string]any{"id": float64(4), "backlog": float64(2)})
	require.NoError(t, err)

	assert.Equal(t, int64(4), back.ID)
	assert.Equal(t, int64(2), back.Fields["backlog"])
	assert.Equal(t, Enum{Name: "P2", Value: int64(2)}, back.Fields["priority"])
	assert.Equal(t, Enum{Name: "INBOX", Value: "inbox"}, back.Fields["status"])
}

func TestCodecIgnoresUnknownKeys(t *testing.T) {
	codec := &Codec{Schema: PlaySessionSchema}
	back, err := codec.DecodeDocument(map[string]any{
		"session_start": "2025-03-10T20:00:00Z",
		"legacy_field":  "ignored",
	})
	require.NoError(t, err)
	_, present := back.Fields["legacy_field"]
	assert.False(t, present)
}

func TestCodecJSONNumbersDecayToDeclaredTypes(t *testing.T) {
	codec := &Codec{Schema: PlaySessionSchema}
	back, err := codec.DecodeDocument(map[string]any{"backlog_entry": float64(12)})
	require.NoError(t, err)
	assert.Equal(t, int64(12), back.Fields["backlog_entry"])
}

func TestCodecRejectsMalformedValues(t *testing.T) {
	codec := &Codec{Schema: PlaySessionSchema}

	_, err := codec.DecodeDocument(map[string]any{"session_start": "late evening"})
	assert.True(t, IsSerialization(err))

	_, err = codec.DecodeDocument(map[string]any{"backlog_entry": "twelve"})
	assert.True(t, IsSerialization(err))

	enumCodec := &Codec{Schema: GameBacklogEntrySchema}
	_, err = enumCodec.DecodeDocument(map[string]any{"status": "shelved"})
	assert.True(t, IsSerialization(err))
}

func TestCodecEncodesDeletedAt(t *testing.T) {
	codec := &Codec{Schema: PlaySessionSchema}
	rec := NewRecord(nil)
	rec.ID = 1
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	rec.DeletedAt = &at

	doc, err := codec.EncodeDocument(rec)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-01T12:00:00.000000000Z", doc["deleted_at"])

	back, err := codec.DecodeDocument(doc)
	require.NoError(t, err)
	require.NotNil(t, back.DeletedAt)
	assert.True(t, back.DeletedAt.Equal(at))
}

func TestCodecTimeTextOrdersLikeInstants(t *testing.T) {
	codec := &Codec{Schema: PlaySessionSchema}
	col := TimeField("t")

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(100 * time.Millisecond),
		base.Add(120 * time.Millisecond),
		base.Add(time.Second),
	}

	var prev string
	for i, ts := range times {
		enc, err := codec.EncodeValue(col, ts)
		require.NoError(t, err)
		s := enc.(string)
		if i > 0 {
			assert.Less(t, prev, s)
		}
		prev = s
	}

	// Offsets normalize to UTC so the same instant encodes identically.
	cet := times[1].In(time.FixedZone("CET", 3600))
	enc, err := codec.EncodeValue(col, cet)
	require.NoError(t, err)
	utc, err := codec.EncodeValue(col, times[1])
	require.NoError(t, err)
	assert.Equal(t, utc, enc)
}
