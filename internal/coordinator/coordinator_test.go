package coordinator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dshills/gochunk-mcp/internal/chunker"
	"github.com/dshills/gochunk-mcp/internal/discovery"
	"github.com/dshills/gochunk-mcp/internal/storage"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

const goSource = `package main

import "fmt"

// Greet says hello
func Greet(name string) string {
	return fmt.Sprintf("hello %s", name)
}

func main() {
	fmt.Println(Greet("world"))
}
`

const pySource = `def add(a, b):
    return a + b


def sub(a, b):
    return a - b
`

const mdSource = `# Title

Some introductory text.

## Section

More text here.
`

func newTestChunker(t *testing.T, mutate ...func(*chunker.Config)) *chunker.Chunker {
	t.Helper()
	cfg := chunker.DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := chunker.New(cfg)
	require.NoError(t, err)
	return c
}

func setupTestStorage(t *testing.T) storage.Storage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "chunks.db"))
	require.NoError(t, err, "Failed to create test storage")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestNew_Defaults(t *testing.T) {
	co := New(newTestChunker(t), Config{})
	assert.Equal(t, DefaultWorkers, co.workers)
	assert.NotNil(t, co.logger)
	assert.Nil(t, co.Store())
	assert.NotNil(t, co.Chunker())
}

func TestChunkFiles_Concurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	co := New(newTestChunker(t), Config{Workers: 3})

	var files []types.DiscoveredFile
	for i := 0; i < 12; i++ {
		files = append(files,
			types.DiscoveredFile{Path: fmt.Sprintf("pkg%d/main.go", i), Content: []byte(goSource), Language: "go"},
			types.DiscoveredFile{Path: fmt.Sprintf("pkg%d/util.py", i), Content: []byte(pySource)},
		)
	}

	res, err := co.ChunkFiles(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, res.Files, len(files))

	total := 0
	for _, f := range files {
		fr, ok := res.Files[f.Path]
		require.True(t, ok, "missing result for %s", f.Path)
		assert.NoError(t, fr.Err)
		assert.NoError(t, fr.Validate())
		assert.NotEmpty(t, fr.Chunks)
		assert.False(t, fr.Degraded)
		total += fr.ChunkCount()
	}

	assert.Equal(t, len(files), res.FilesChunked)
	assert.Equal(t, total, res.ChunksCreated)
	assert.Zero(t, res.FilesFailed)
	assert.Empty(t, res.ErrorMessages)
}

func TestChunkFiles_SameResultAsSequential(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newTestChunker(t)
	file := types.DiscoveredFile{Path: "main.go", Content: []byte(goSource), Language: "go"}
	want := c.ChunkFile(context.Background(), file)

	res, err := New(c, Config{Workers: 2}).ChunkFiles(context.Background(), []types.DiscoveredFile{file})
	require.NoError(t, err)

	got := res.Files["main.go"]
	require.Len(t, got.Chunks, len(want.Chunks))
	for i := range want.Chunks {
		assert.Equal(t, want.Chunks[i].Content, got.Chunks[i].Content)
		assert.Equal(t, want.Chunks[i].Span, got.Chunks[i].Span)
	}
	assert.Equal(t, want.Strategy, got.Strategy)
}

func TestChunkFiles_FailuresAreIsolated(t *testing.T) {
	defer goleak.VerifyNone(t)

	co := New(newTestChunker(t), Config{Workers: 2})
	files := []types.DiscoveredFile{
		{Path: "ok.go", Content: []byte(goSource), Language: "go"},
		{Path: "empty.go", Content: nil, Language: "go"},
		{Path: "blob.bin", Content: []byte("\x00\x01\x02\x03binary")},
	}

	res, err := co.ChunkFiles(context.Background(), files)
	require.NoError(t, err)

	assert.NoError(t, res.Files["ok.go"].Err)
	assert.NotEmpty(t, res.Files["ok.go"].Chunks)

	empty := res.Files["empty.go"]
	assert.NoError(t, empty.Err)
	assert.Empty(t, empty.Chunks)
	assert.False(t, empty.Degraded)

	blob := res.Files["blob.bin"]
	assert.ErrorIs(t, blob.Err, types.ErrBinaryContent)
	assert.False(t, blob.Degraded)

	assert.Equal(t, 1, res.FilesFailed)
	assert.Equal(t, 2, res.FilesChunked)
	require.Len(t, res.ErrorMessages, 1)
	assert.Contains(t, res.ErrorMessages[0], "blob.bin")
}

func TestChunkFiles_DegradesOnTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newTestChunker(t, func(cfg *chunker.Config) {
		cfg.Governor.Timeout = time.Nanosecond
	})
	co := New(c, Config{Workers: 1})

	res, err := co.ChunkFiles(context.Background(), []types.DiscoveredFile{
		{Path: "main.go", Content: []byte(goSource), Language: "go"},
	})
	require.NoError(t, err)

	fr := res.Files["main.go"]
	require.NotNil(t, fr)
	assert.True(t, fr.Degraded)
	assert.Error(t, fr.Err)
	require.NotEmpty(t, fr.Visited)
	assert.Equal(t, chunker.StrategyRecursiveText.String(), fr.Visited[len(fr.Visited)-1])
	assert.Equal(t, chunker.StrategyRecursiveText.String(), fr.Strategy)
	assert.Equal(t, 1, res.FilesDegraded)
	assert.Zero(t, res.FilesChunked)
}

func TestChunkFiles_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	co := New(newTestChunker(t), Config{Workers: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := []types.DiscoveredFile{
		{Path: "a.go", Content: []byte(goSource), Language: "go"},
		{Path: "b.go", Content: []byte(goSource), Language: "go"},
	}
	res, err := co.ChunkFiles(ctx, files)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	for _, fr := range res.Files {
		assert.False(t, fr.Degraded)
	}
}

func TestChunkFiles_Empty(t *testing.T) {
	co := New(newTestChunker(t), Config{})
	res, err := co.ChunkFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	assert.Zero(t, res.ChunksCreated)
}

func TestChunkDirectory_WithoutStore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":     goSource,
		"lib/util.py": pySource,
		"README.md":   mdSource,
	})

	co := New(newTestChunker(t), Config{})
	res, err := co.ChunkDirectory(context.Background(), root, discovery.DefaultOptions(), false)
	require.NoError(t, err)

	assert.Nil(t, res.Project)
	assert.Len(t, res.Files, 3)
	assert.Equal(t, 3, res.FilesChunked)
	assert.Contains(t, res.Files, filepath.Join(res.Root, "main.go"))
	assert.False(t, co.lock.Held())
}

func TestChunkDirectory_Incremental(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":     goSource,
		"lib/util.py": pySource,
		"README.md":   mdSource,
	})

	store := setupTestStorage(t)
	co := New(newTestChunker(t), Config{Store: store})

	// First run chunks everything
	first, err := co.ChunkDirectory(ctx, root, discovery.DefaultOptions(), false)
	require.NoError(t, err)
	require.NotNil(t, first.Project)
	assert.Equal(t, 3, first.FilesChunked)
	assert.Empty(t, first.Unchanged)

	project, err := store.GetProject(ctx, first.Root)
	require.NoError(t, err)
	assert.Equal(t, 3, project.TotalFiles)
	assert.Equal(t, first.ChunksCreated, project.TotalChunks)
	assert.False(t, project.LastChunkedAt.IsZero())

	stored, err := store.GetFile(ctx, project.ID, "main.go")
	require.NoError(t, err)
	assert.Equal(t, "go", stored.Language)
	assert.Equal(t, chunker.StrategySemantic.String(), stored.Strategy)
	assert.Nil(t, stored.ChunkError)

	chunks, err := store.ListChunksByFile(ctx, stored.ID)
	require.NoError(t, err)
	want := first.Files[filepath.Join(first.Root, "main.go")]
	require.Len(t, chunks, len(want.Chunks))
	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
		assert.Equal(t, want.Chunks[i].Content, c.Content)
	}

	// Second run skips unchanged files
	second, err := co.ChunkDirectory(ctx, root, discovery.DefaultOptions(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "lib/util.py", "main.go"}, second.Unchanged)
	assert.Equal(t, 3, second.FilesUnchanged)
	assert.Zero(t, second.FilesChunked)

	// A modified file is re-chunked
	writeTree(t, root, map[string]string{"lib/util.py": pySource + "\n\ndef mul(a, b):\n    return a * b\n"})
	third, err := co.ChunkDirectory(ctx, root, discovery.DefaultOptions(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, third.FilesChunked)
	assert.Len(t, third.Unchanged, 2)

	// Force re-chunks everything
	forced, err := co.ChunkDirectory(ctx, root, discovery.DefaultOptions(), true)
	require.NoError(t, err)
	assert.Equal(t, 3, forced.FilesChunked)
	assert.Empty(t, forced.Unchanged)

	// Deleted files are pruned
	require.NoError(t, os.Remove(filepath.Join(root, "README.md")))
	pruned, err := co.ChunkDirectory(ctx, root, discovery.DefaultOptions(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned.FilesRemoved)

	_, err = store.GetFile(ctx, project.ID, "README.md")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	status, err := store.GetStatus(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, status.FilesCount)
}

func TestChunkDirectory_PersistsDegradedFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.go": goSource})

	store := setupTestStorage(t)
	c := newTestChunker(t, func(cfg *chunker.Config) {
		cfg.Governor.Timeout = time.Nanosecond
	})
	co := New(c, Config{Store: store})

	res, err := co.ChunkDirectory(ctx, root, discovery.DefaultOptions(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesDegraded)

	stored, err := store.GetFile(ctx, res.Project.ID, "main.go")
	require.NoError(t, err)
	assert.True(t, stored.Degraded)
	require.NotNil(t, stored.ChunkError)
	assert.Equal(t, chunker.StrategyRecursiveText.String(), stored.Strategy)

	status, err := store.GetStatus(ctx, res.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.DegradedFiles)
}

func TestChunkDirectory_RunInProgress(t *testing.T) {
	co := New(newTestChunker(t), Config{})
	require.True(t, co.lock.TryAcquire())
	defer co.lock.Release()

	_, err := co.ChunkDirectory(context.Background(), t.TempDir(), discovery.DefaultOptions(), false)
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestChunkDirectory_InvalidRoot(t *testing.T) {
	co := New(newTestChunker(t), Config{})
	_, err := co.ChunkDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"), discovery.DefaultOptions(), false)
	assert.Error(t, err)
	assert.False(t, co.lock.Held())
}

func TestRunLock(t *testing.T) {
	var l RunLock
	assert.False(t, l.Held())
	assert.True(t, l.TryAcquire())
	assert.True(t, l.Held())
	assert.False(t, l.TryAcquire())
	l.Release()
	assert.False(t, l.Held())
	assert.True(t, l.TryAcquire())
}
