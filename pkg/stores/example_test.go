package stores_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/stores"
)

// ExampleNewSQLiteStore demonstrates creating and initializing a run store.
func ExampleNewSQLiteStore() {
	store, err := stores.NewSQLiteStore(stores.Config{
		Path:            ":memory:", // Use in-memory database for example
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		log.Fatal(err)
	}

	if err := store.Migrate(ctx); err != nil {
		log.Fatal(err)
	}

	defer store.Close()

	fmt.Println("Store initialized successfully")
	// Output: Store initialized successfully
}

// ExampleSQLiteStore_LoadPriorRun demonstrates the save/load round trip used
// for prior-run defaults.
func ExampleSQLiteStore_LoadPriorRun() {
	store, _ := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	ctx := context.Background()
	_ = store.Init(ctx)
	_ = store.Migrate(ctx)
	defer store.Close()

	_ = store.SaveRun(ctx, "/projects/demo", map[string]interface{}{
		"framework": "vllm",
	})

	params, _ := store.LoadPriorRun(ctx, "/projects/demo")
	fmt.Println(params["framework"])
	// Output: vllm
}
