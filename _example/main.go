package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/hupe1980/likedex"
)

func main() {
	seed := int64(4711)
	size := 500000

	ix, err := likedex.New(2)
	if err != nil {
		log.Fatal(err)
	}

	rng := rand.New(rand.NewSource(seed))

	fmt.Println("--- Insert ---")
	fmt.Println("Size:", size)

	start := time.Now()

	for id := uint64(1); id <= uint64(size); id++ {
		vals := []string{
			fmt.Sprintf("%s.%s.example.com", randWord(rng), randWord(rng)),
			fmt.Sprintf("user-%06d", rng.Intn(size)),
		}
		if err := ix.Insert(id, vals); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("Seconds: %.2f\n\n", time.Since(start).Seconds())

	st := ix.Stats()
	fmt.Printf("Live: %d, Slots: %d, MaxLen: %v\n\n", st.LiveRecords, st.SlotCount, st.MaxIndexedLength)

	ctx := context.Background()

	queries := []struct {
		name  string
		preds []likedex.Predicate
	}{
		{"prefix", []likedex.Predicate{{Column: 0, Pattern: "api%"}}},
		{"suffix", []likedex.Predicate{{Column: 0, Pattern: "%.example.com"}}},
		{"substring", []likedex.Predicate{{Column: 1, Pattern: "%42%"}}},
		{"multi-part", []likedex.Predicate{{Column: 0, Pattern: "a%.%.com"}}},
		{"conjunction", []likedex.Predicate{
			{Column: 0, Pattern: "web%"},
			{Column: 1, Pattern: "user-00%"},
		}},
		{"ilike", []likedex.Predicate{{Column: 0, Pattern: "API%", CaseFold: true}}},
	}

	for _, q := range queries {
		start = time.Now()
		ids, err := ix.Query(ctx, q.preds, likedex.WithLimit(5))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("--- %s ---\n", q.name)
		fmt.Printf("First ids: %v\n", ids)
		fmt.Printf("Seconds: %.6f\n\n", time.Since(start).Seconds())
	}
}

var words = []string{"api", "web", "cdn", "auth", "mail", "db", "cache", "edge", "app", "dev"}

func randWord(rng *rand.Rand) string {
	return words[rng.Intn(len(words))]
}
