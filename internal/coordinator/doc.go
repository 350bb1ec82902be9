// Package coordinator runs the chunking pipeline across many files.
//
// The coordinator fans files out to a bounded set of workers, gives each
// file its own deadline, and optionally persists results to a store.
//
// # Basic Usage
//
//	c, _ := chunker.New(chunker.DefaultConfig())
//	co := coordinator.New(c, coordinator.Config{Workers: 8, Store: db})
//
//	res, err := co.ChunkDirectory(ctx, "/path/to/project", discovery.DefaultOptions(), false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Chunked %d files into %d chunks in %v\n",
//	    res.FilesChunked, res.ChunksCreated, res.Duration)
//
// # Pipeline
//
//  1. Discovery: walk the tree, apply .gitignore and glob filters
//  2. Incremental decision: compare SHA-256 content hashes, skip unchanged files
//  3. Chunk: run every pending file through the strategy hierarchy (parallel)
//  4. Store: replace each file's chunks in its own transaction
//  5. Prune: remove stored files that are no longer discovered
//
// # Concurrent Processing
//
// Files are processed by an errgroup bounded with a weighted semaphore:
//
//	sem := semaphore.NewWeighted(int64(workers))
//	for _, f := range files {
//	    _ = sem.Acquire(ctx, 1)
//	    g.Go(func() error {
//	        defer sem.Release(1)
//	        return chunk(f)
//	    })
//	}
//
// Each file is chunked on a single goroutine. Default: 4 workers.
//
// # Degradation
//
// A file that times out or fails without producing chunks is re-run on
// the recursive text strategy and reported with Degraded set. Binary
// files are reported as failures and never degraded.
//
// # Error Handling
//
// Per-file errors never abort the run:
//
//	res, err := co.ChunkFiles(ctx, files)
//	// err only returned when ctx ends the run
//
//	for _, msg := range res.ErrorMessages {
//	    log.Println(msg)
//	}
//
// Only one ChunkDirectory call may run at a time; a concurrent call
// returns ErrRunInProgress.
package coordinator
