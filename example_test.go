package gamestore_test

import (
	"context"
	"fmt"

	"gamestore"
	"gamestore/memory"
)

// Example shows the basic lifecycle against the in-memory backend; every
// other backend exposes the same contract.
func Example() {
	ctx := context.Background()
	schema := gamestore.MustSchema("game_metadata",
		gamestore.FieldOf("title", ""),
		gamestore.IntegerField("score"),
	)
	repo := memory.New(schema)

	created, err := repo.Create(ctx, gamestore.NewRecord(map[string]any{
		"title": "Outer Wilds",
		"score": int64(93),
	}))
	if err != nil {
		panic(err)
	}

	page, err := repo.Find(ctx,
		gamestore.FromMap(map[string]any{"score__gte": 90}),
		gamestore.OrderBy("id"), gamestore.Limit(10))
	if err != nil {
		panic(err)
	}

	fmt.Println(created.ID, page.Items[0].Fields["title"])
	// Output: 1 Outer Wilds
}
