// Command cleanup-db deletes every context owned by the given storage
// URIs, restoring a clean slate between benchmark runs.
//
// A URI whose scheme has no registered backend is a hard failure, not a
// silent skip: skipping cleanup would leak state into the next run.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/stupiduntilnot/contextstore/internal/config"
	"github.com/stupiduntilnot/contextstore/internal/storage"
)

func main() {
	var uris string
	flag.StringVar(&uris, "uris", os.Getenv("CONTEXTSTORE_URIS"), "comma-separated storage URIs to wipe")
	flag.Parse()

	targets := config.SplitList(uris)
	if len(targets) == 0 {
		log.Fatal("[cleanup-db] no storage URIs given (use -uris or CONTEXTSTORE_URIS)")
	}

	ctx := context.Background()
	failed := false
	for _, uri := range targets {
		adapter, err := storage.Open(ctx, uri)
		if err != nil {
			log.Printf("[cleanup-db] %s: %v", uri, err)
			failed = true
			continue
		}
		if err := adapter.DeleteAll(ctx); err != nil {
			log.Printf("[cleanup-db] %s: %v", uri, err)
			failed = true
		} else {
			log.Printf("[cleanup-db] wiped %s", adapter.FullPath())
		}
		adapter.Close()
	}
	if failed {
		os.Exit(1)
	}
}
