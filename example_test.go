package likedex_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/likedex"
)

func Example() {
	ix, err := likedex.New(2)
	if err != nil {
		log.Fatal(err)
	}

	records := map[uint64][]string{
		1: {"alice", "engineering"},
		2: {"bob", "engineering"},
		3: {"alexandra", "sales"},
	}
	for id, vals := range records {
		if err := ix.Insert(id, vals); err != nil {
			log.Fatal(err)
		}
	}

	ids, err := ix.Query(context.Background(), []likedex.Predicate{
		{Column: 0, Pattern: "al%"},
		{Column: 1, Pattern: "ENG%", CaseFold: true},
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(ids)
	// Output: [1]
}

func Example_multiPart() {
	ix, err := likedex.New(1)
	if err != nil {
		log.Fatal(err)
	}

	for id, host := range map[uint64]string{
		1: "api.example.com",
		2: "api.example.org",
		3: "www.example.com",
	} {
		if err := ix.Insert(id, []string{host}); err != nil {
			log.Fatal(err)
		}
	}

	ids, err := ix.Query(context.Background(), []likedex.Predicate{
		{Column: 0, Pattern: "api%.com"},
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(ids)
	// Output: [1]
}
