// Package storage provides SQLite-based persistence for chunked files.
//
// The storage layer manages:
//   - Project metadata (one row per chunked root directory)
//   - File information, content hashes, and the strategy that chunked them
//   - Code chunks with their serialized metadata
//   - A full-text search index over chunk content and names
//
// # Database Schema
//
// Tables:
//   - projects: chunked root directories
//   - files: relative paths, SHA-256 hashes, strategy, degraded flag
//   - chunks: ordered chunks per file, keyed by position
//   - chunks_fts: FTS5 index kept in sync by triggers
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.gochunk/chunks.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	file := &storage.File{ProjectID: project.ID, FilePath: "main.go", ContentHash: hash}
//	if err := db.UpsertFile(ctx, file); err != nil {
//	    return err
//	}
//
// # Transactions
//
// The coordinator replaces a file's chunks inside one transaction:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = tx.Rollback() }()
//
//	_ = tx.DeleteChunksByFile(ctx, file.ID)
//	for i, c := range chunks {
//	    rec, _ := storage.FromCodeChunk(c, file.ID, i)
//	    _ = tx.UpsertChunk(ctx, rec)
//	}
//	return tx.Commit()
//
// # Incremental Updates
//
// Files whose stored hash matches the current content are skipped unless a
// run is forced:
//
//	stored, err := db.GetFile(ctx, projectID, relPath)
//	if err == nil && stored.ContentHash == sha256.Sum256(content) {
//	    return nil
//	}
//
// # Build Modes
//
// The default build uses modernc.org/sqlite. Building with the sqlite_cgo
// tag switches to github.com/mattn/go-sqlite3, which also needs the
// sqlite_fts5 tag.
package storage
