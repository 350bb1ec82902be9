package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/dshills/gochunk-mcp/internal/chunker"
	"github.com/dshills/gochunk-mcp/internal/discovery"
	"github.com/dshills/gochunk-mcp/internal/storage"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

// DefaultWorkers is the number of files chunked concurrently
const DefaultWorkers = 4

// ErrRunInProgress is returned when a directory run is already active
var ErrRunInProgress = errors.New("a chunking run is already in progress")

// Coordinator fans files out to the chunker: discover -> chunk -> store
type Coordinator struct {
	chunker *chunker.Chunker
	store   storage.Storage // nil disables persistence
	logger  *slog.Logger

	workers int
	timeout time.Duration
	lock    RunLock
}

// Config contains configuration for the coordinator
type Config struct {
	Workers int             // concurrent files (default: DefaultWorkers)
	Store   storage.Storage // optional
	Logger  *slog.Logger
}

// Statistics summarizes a run
type Statistics struct {
	FilesChunked   int
	FilesUnchanged int
	FilesDegraded  int
	FilesPartial   int
	FilesFailed    int
	FilesRemoved   int
	ChunksCreated  int
	Duration       time.Duration
	ErrorMessages  []string
}

// Result holds per-file results keyed by file path. Chunks within a file
// are in source order; there is no order across files.
type Result struct {
	Files map[string]*types.FileResult
	Statistics
}

// DirectoryResult is the outcome of ChunkDirectory
type DirectoryResult struct {
	*Result
	Root      string
	Project   *storage.Project // nil without a store
	Skipped   []discovery.Skipped
	Unchanged []string // relative paths whose stored hash matched
}

// New creates a Coordinator around c
func New(c *chunker.Chunker, cfg Config) *Coordinator {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Coordinator{
		chunker: c,
		store:   cfg.Store,
		logger:  cfg.Logger,
		workers: cfg.Workers,
		timeout: c.Governor().Config().Timeout,
	}
}

// Chunker returns the underlying chunker
func (co *Coordinator) Chunker() *chunker.Chunker { return co.chunker }

// Store returns the configured store, or nil
func (co *Coordinator) Store() storage.Storage { return co.store }

// ChunkFiles chunks files concurrently. A failure in one file never
// affects another; the returned error is non-nil only when ctx ends the
// run early, in which case the result holds the files that finished.
func (co *Coordinator) ChunkFiles(ctx context.Context, files []types.DiscoveredFile) (*Result, error) {
	started := time.Now()
	res := &Result{
		Files:      make(map[string]*types.FileResult, len(files)),
		Statistics: Statistics{ErrorMessages: make([]string, 0)},
	}

	var (
		chunked  int32
		degraded int32
		partial  int32
		failed   int32
		chunks   int32
	)

	sem := semaphore.NewWeighted(int64(co.workers))
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex // protects res.Files and res.ErrorMessages

	for i := range files {
		file := files[i]
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)

			fr := co.chunkOne(gctx, file)
			if ctxErr := gctx.Err(); ctxErr != nil && fr.Err != nil && errors.Is(fr.Err, ctxErr) {
				return ctxErr
			}

			switch {
			case fr.Degraded:
				atomic.AddInt32(&degraded, 1)
			case fr.Err != nil && len(fr.Chunks) == 0:
				atomic.AddInt32(&failed, 1)
			default:
				atomic.AddInt32(&chunked, 1)
			}
			if fr.Partial {
				atomic.AddInt32(&partial, 1)
			}
			atomic.AddInt32(&chunks, int32(len(fr.Chunks)))

			mu.Lock()
			res.Files[file.Path] = fr
			if fr.Err != nil {
				res.ErrorMessages = append(res.ErrorMessages, fmt.Sprintf("%s: %v", file.Path, fr.Err))
			}
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	res.FilesChunked = int(chunked)
	res.FilesDegraded = int(degraded)
	res.FilesPartial = int(partial)
	res.FilesFailed = int(failed)
	res.ChunksCreated = int(chunks)
	res.Duration = time.Since(started)
	sort.Strings(res.ErrorMessages)

	if err != nil {
		return res, fmt.Errorf("chunking interrupted: %w", err)
	}
	return res, nil
}

// chunkOne runs one file under its own deadline. A file that ends with an
// error and no chunks is retried on recursive text, without the per-file
// deadline, and marked degraded.
func (co *Coordinator) chunkOne(ctx context.Context, file types.DiscoveredFile) *types.FileResult {
	fctx, cancel := co.withTimeout(ctx)
	fr := co.chunker.ChunkFile(fctx, file)
	cancel()

	if fr.Err == nil || len(fr.Chunks) > 0 || ctx.Err() != nil || errors.Is(fr.Err, types.ErrBinaryContent) {
		return fr
	}

	co.logger.Warn("degrading file to recursive text",
		"file", file.Path, "strategy", fr.Strategy, "error", fr.Err)

	out := co.chunker.ChunkFileFrom(ctx, file, chunker.StrategyRecursiveText)
	out.Visited = append(append([]string{}, fr.Visited...), out.Visited...)
	out.Degraded = true
	if out.Err == nil {
		out.Err = fr.Err
	}
	return out
}

func (co *Coordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if co.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, co.timeout)
}

// ChunkDirectory discovers files under root, chunks them, and persists
// the results when a store is configured. With a store, files whose
// content hash is unchanged are skipped unless force is set, and stored
// files that are no longer discovered are removed.
func (co *Coordinator) ChunkDirectory(ctx context.Context, root string, opts discovery.Options, force bool) (*DirectoryResult, error) {
	if !co.lock.TryAcquire() {
		return nil, ErrRunInProgress
	}
	defer co.lock.Release()

	started := time.Now()
	walk, err := discovery.Walk(ctx, root, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	out := &DirectoryResult{Root: walk.Root, Skipped: walk.Skipped}

	if co.store == nil {
		res, err := co.ChunkFiles(ctx, walk.Files)
		out.Result = res
		if res != nil {
			res.Duration = time.Since(started)
		}
		return out, err
	}

	project, err := co.getOrCreateProject(ctx, walk.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}
	out.Project = project

	pending := make([]types.DiscoveredFile, 0, len(walk.Files))
	relOf := make(map[string]string, len(walk.Files))
	for i := range walk.Files {
		file := walk.Files[i]
		rel := walk.RelPaths[i]
		if !force {
			unchanged, err := co.unchanged(ctx, project.ID, rel, &file)
			if err != nil {
				return nil, err
			}
			if unchanged {
				out.Unchanged = append(out.Unchanged, rel)
				continue
			}
		}
		relOf[file.Path] = rel
		pending = append(pending, file)
	}

	res, chunkErr := co.ChunkFiles(ctx, pending)
	out.Result = res
	res.FilesUnchanged = len(out.Unchanged)

	// Persist sequentially in discovery order
	for i := range pending {
		file := pending[i]
		fr, ok := res.Files[file.Path]
		if !ok {
			continue
		}
		if err := co.persistFile(ctx, project, relOf[file.Path], &file, fr); err != nil {
			res.ErrorMessages = append(res.ErrorMessages, fmt.Sprintf("%s: %v", file.Path, err))
		}
	}
	if chunkErr != nil {
		return out, chunkErr
	}

	removed, err := co.removeMissing(ctx, project.ID, walk.RelPaths)
	if err != nil {
		return out, fmt.Errorf("failed to remove deleted files: %w", err)
	}
	res.FilesRemoved = removed

	if err := co.updateProjectStats(ctx, project); err != nil {
		return out, fmt.Errorf("failed to update project stats: %w", err)
	}

	res.Duration = time.Since(started)
	co.logger.Info("chunked directory",
		"root", walk.Root,
		"chunked", res.FilesChunked,
		"unchanged", res.FilesUnchanged,
		"degraded", res.FilesDegraded,
		"failed", res.FilesFailed,
		"chunks", res.ChunksCreated,
		"duration", res.Duration)
	return out, nil
}

// getOrCreateProject retrieves an existing project or creates a new one
func (co *Coordinator) getOrCreateProject(ctx context.Context, rootPath string) (*storage.Project, error) {
	project, err := co.store.GetProject(ctx, rootPath)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	project = &storage.Project{
		RootPath:      rootPath,
		SchemaVersion: storage.CurrentSchemaVersion,
	}
	if err := co.store.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// unchanged reports whether the stored hash matches the file's content
func (co *Coordinator) unchanged(ctx context.Context, projectID int64, rel string, file *types.DiscoveredFile) (bool, error) {
	stored, err := co.store.GetFile(ctx, projectID, rel)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored.ContentHash == file.Hash(), nil
}

// persistFile replaces a file's stored chunks inside one transaction
func (co *Coordinator) persistFile(ctx context.Context, project *storage.Project, rel string,
	file *types.DiscoveredFile, fr *types.FileResult) error {

	tx, err := co.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec := &storage.File{
		ProjectID:   project.ID,
		FilePath:    rel,
		Language:    fr.Language,
		ContentHash: file.Hash(),
		SizeBytes:   int64(len(file.Content)),
		Strategy:    fr.Strategy,
		Degraded:    fr.Degraded,
	}
	if fr.Err != nil {
		msg := fr.Err.Error()
		rec.ChunkError = &msg
	}
	if err := tx.UpsertFile(ctx, rec); err != nil {
		return err
	}
	if err := tx.DeleteChunksByFile(ctx, rec.ID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}
	for i, c := range fr.Chunks {
		chunk, err := storage.FromCodeChunk(c, rec.ID, i)
		if err != nil {
			return err
		}
		if err := tx.UpsertChunk(ctx, chunk); err != nil {
			return fmt.Errorf("failed to store chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// removeMissing deletes stored files that discovery no longer returns
func (co *Coordinator) removeMissing(ctx context.Context, projectID int64, discovered []string) (int, error) {
	keep := make(map[string]struct{}, len(discovered))
	for _, rel := range discovered {
		keep[rel] = struct{}{}
	}

	files, err := co.store.ListFiles(ctx, projectID)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if _, ok := keep[f.FilePath]; ok {
			continue
		}
		if err := co.store.DeleteFile(ctx, f.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// updateProjectStats updates the project's file and chunk counts
func (co *Coordinator) updateProjectStats(ctx context.Context, project *storage.Project) error {
	status, err := co.store.GetStatus(ctx, project.ID)
	if err != nil {
		return err
	}

	project.TotalFiles = status.FilesCount
	project.TotalChunks = status.ChunksCount
	project.LastChunkedAt = time.Now()

	return co.store.UpdateProject(ctx, project)
}
