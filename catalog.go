package gamestore

// Enumerations for the game backlog domain.
var (
	// BacklogStatus tracks where an entry sits in the play pipeline.
	BacklogStatus = NewEnumType("BacklogStatus",
		Enum{Name: "INBOX", Value: "inbox"},
		Enum{Name: "CONSIDERING", Value: "considering"},
		Enum{Name: "TO_BE_PLAYED", Value: "to_be_played"},
		Enum{Name: "PLAYING", Value: "playing"},
		Enum{Name: "ABANDONED", Value: "abandoned"},
		Enum{Name: "FINISHED", Value: "finished"},
		Enum{Name: "PAUSED", Value: "paused"},
	)

	// BacklogPriority orders entries within a backlog, P0 highest.
	BacklogPriority = NewEnumType("BacklogPriority",
		Enum{Name: "P0", Value: int64(0)},
		Enum{Name: "P1", Value: int64(1)},
		Enum{Name: "P2", Value: int64(2)},
		Enum{Name: "P3", Value: int64(3)},
	)

	// Genre classifies a game.
	Genre = NewEnumType("Genre",
		Enum{Name: "ACTION", Value: "action"},
		Enum{Name: "ADVENTURE", Value: "adventure"},
		Enum{Name: "RPG", Value: "rpg"},
		Enum{Name: "STRATEGY", Value: "strategy"},
		Enum{Name: "SIMULATION", Value: "simulation"},
		Enum{Name: "SPORTS", Value: "sports"},
		Enum{Name: "PUZZLE", Value: "puzzle"},
		Enum{Name: "SHOOTER", Value: "shooter"},
		Enum{Name: "PLATFORMER", Value: "platformer"},
		Enum{Name: "HORROR", Value: "horror"},
		Enum{Name: "INDIE", Value: "indie"},
	)

	// Platform names a system a game can be played on.
	Platform = NewEnumType("Platform",
		Enum{Name: "PC", Value: "pc"},
		Enum{Name: "PLAYSTATION", Value: "playstation"},
		Enum{Name: "XBOX", Value: "xbox"},
		Enum{Name: "SWITCH", Value: "switch"},
		Enum{Name: "MOBILE", Value: "mobile"},
		Enum{Name: "STEAM_DECK", Value: "steam_deck"},
	)
)

// Record shapes for the game backlog domain. Each schema doubles as a
// realistic exercise of the type system: plain text, foreign keys as
// integers, enums stored by value, timestamp ranges and enum lists.
var (
	// GameBacklogSchema is a named collection of backlog entries.
	GameBacklogSchema = MustSchema("game_backlog",
		FieldOf("title", ""),
		ListField("entries", IntegerColumn{}),
	)

	// GameBacklogEntrySchema ties a game to a backlog with a priority and
	// status.
	GameBacklogEntrySchema = MustSchema("game_backlog_entry",
		IntegerField("meta_data"),
		EnumField("priority", BacklogPriority, Enum{Name: "P2", Value: int64(2)}),
		EnumField("status", BacklogStatus, Enum{Name: "INBOX", Value: "inbox"}),
		IntegerField("backlog"),
	)

	// GameMetadataSchema describes a game independent of any backlog.
	GameMetadataSchema = MustSchema("game_metadata",
		FieldOf("title", ""),
		FieldOf("description", ""),
		FieldOf("cover_url", ""),
		TimeField("release_date"),
		FieldOf("developer", ""),
		FieldOf("publisher", ""),
		RealField("avg_completion_time"),
		ListField("genres", EnumColumn{Enum: Genre}),
		ListField("platforms", EnumColumn{Enum: Platform}),
	)

	// PlaySessionSchema records one sitting with a backlog entry.
	PlaySessionSchema = MustSchema("play_session",
		TimeField("session_start"),
		TimeField("session_end"),
		IntegerField("backlog_entry"),
	)
)
