package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage opens (creating if needed) the chunk store at dbPath
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Project operations

func createProject(ctx context.Context, q querier, project *Project) error {
	query := `
		INSERT INTO projects (root_path, schema_version, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	if project.SchemaVersion == "" {
		project.SchemaVersion = CurrentSchemaVersion
	}
	now := time.Now()
	result, err := q.ExecContext(ctx, query, project.RootPath, project.SchemaVersion, now, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("project %s: %w", project.RootPath, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	project.ID = id
	project.CreatedAt = now
	project.UpdatedAt = now
	return nil
}

const projectColumns = `id, root_path, total_files, total_chunks, schema_version, last_chunked_at, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	var project Project
	var lastChunkedAt sql.NullTime
	err := row.Scan(
		&project.ID, &project.RootPath, &project.TotalFiles, &project.TotalChunks,
		&project.SchemaVersion, &lastChunkedAt, &project.CreatedAt, &project.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastChunkedAt.Valid {
		project.LastChunkedAt = lastChunkedAt.Time
	}
	return &project, nil
}

func getProject(ctx context.Context, q querier, rootPath string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE root_path = ?`
	return scanProject(q.QueryRowContext(ctx, query, rootPath))
}

func getProjectByID(ctx context.Context, q querier, projectID int64) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	return scanProject(q.QueryRowContext(ctx, query, projectID))
}

func updateProject(ctx context.Context, q querier, project *Project) error {
	query := `
		UPDATE projects
		SET total_files = ?, total_chunks = ?, last_chunked_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		project.TotalFiles, project.TotalChunks, project.LastChunkedAt, now, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	project.UpdatedAt = now
	return nil
}

// File operations

func upsertFile(ctx context.Context, q querier, file *File) error {
	query := `
		INSERT INTO files (project_id, file_path, language, content_hash, size_bytes, strategy,
		                   chunk_error, degraded, last_chunked_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, file_path) DO UPDATE SET
			language = excluded.language,
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			strategy = excluded.strategy,
			chunk_error = excluded.chunk_error,
			degraded = excluded.degraded,
			last_chunked_at = excluded.last_chunked_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		file.ProjectID, file.FilePath, file.Language, file.ContentHash[:], file.SizeBytes,
		file.Strategy, file.ChunkError, file.Degraded, now, now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}

	file.LastChunkedAt = now
	file.UpdatedAt = now
	return nil
}

const fileColumns = `id, project_id, file_path, language, content_hash, size_bytes, strategy,
	chunk_error, degraded, last_chunked_at, created_at, updated_at`

func scanFile(row interface{ Scan(...any) error }) (*File, error) {
	var file File
	var hash []byte
	var language, strategy, chunkError sql.NullString
	var lastChunkedAt sql.NullTime
	var degraded sql.NullBool
	err := row.Scan(
		&file.ID, &file.ProjectID, &file.FilePath, &language, &hash, &file.SizeBytes,
		&strategy, &chunkError, &degraded, &lastChunkedAt, &file.CreatedAt, &file.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(file.ContentHash[:], hash)
	file.Language = language.String
	file.Strategy = strategy.String
	file.Degraded = degraded.Bool
	if chunkError.Valid {
		file.ChunkError = &chunkError.String
	}
	if lastChunkedAt.Valid {
		file.LastChunkedAt = lastChunkedAt.Time
	}
	return &file, nil
}

func getFile(ctx context.Context, q querier, projectID int64, filePath string) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? AND file_path = ?`
	return scanFile(q.QueryRowContext(ctx, query, projectID, filePath))
}

func getFileByID(ctx context.Context, q querier, fileID int64) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ?`
	return scanFile(q.QueryRowContext(ctx, query, fileID))
}

func getFileByHash(ctx context.Context, q querier, projectID int64, hash [32]byte) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? AND content_hash = ? ORDER BY file_path LIMIT 1`
	return scanFile(q.QueryRowContext(ctx, query, projectID, hash[:]))
}

func deleteFile(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, fileID)
	return err
}

func listFiles(ctx context.Context, q querier, projectID int64) ([]*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? ORDER BY file_path`
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// Chunk operations

func upsertChunk(ctx context.Context, q querier, chunk *Chunk) error {
	query := `
		INSERT INTO chunks (
			file_id, position, chunk_uuid, parent_uuid, content, content_hash, token_count,
			start_line, end_line, kind, source, language, name, category, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id, position)
		DO UPDATE SET
			chunk_uuid = excluded.chunk_uuid,
			parent_uuid = excluded.parent_uuid,
			content = excluded.content,
			content_hash = excluded.content_hash,
			token_count = excluded.token_count,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			kind = excluded.kind,
			source = excluded.source,
			language = excluded.language,
			name = excluded.name,
			category = excluded.category,
			metadata = excluded.metadata
		RETURNING id, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		chunk.FileID, chunk.Position, chunk.ChunkUUID, chunk.ParentUUID, chunk.Content,
		chunk.ContentHash[:], chunk.TokenCount, chunk.StartLine, chunk.EndLine,
		chunk.Kind, chunk.Source, chunk.Language, chunk.Name, chunk.Category, chunk.Metadata, now,
	).Scan(&chunk.ID, &chunk.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

const chunkColumns = `id, file_id, position, chunk_uuid, parent_uuid, content, content_hash, token_count,
	start_line, end_line, kind, source, language, name, category, metadata, created_at`

func scanChunk(row interface{ Scan(...any) error }) (*Chunk, error) {
	var chunk Chunk
	var hash []byte
	var parent, language, name, category, metadata sql.NullString
	err := row.Scan(
		&chunk.ID, &chunk.FileID, &chunk.Position, &chunk.ChunkUUID, &parent, &chunk.Content,
		&hash, &chunk.TokenCount, &chunk.StartLine, &chunk.EndLine, &chunk.Kind, &chunk.Source,
		&language, &name, &category, &metadata, &chunk.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(chunk.ContentHash[:], hash)
	if parent.Valid {
		chunk.ParentUUID = &parent.String
	}
	chunk.Language = language.String
	chunk.Name = name.String
	chunk.Category = category.String
	chunk.Metadata = metadata.String
	return &chunk, nil
}

func getChunk(ctx context.Context, q querier, chunkID int64) (*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE id = ?`
	return scanChunk(q.QueryRowContext(ctx, query, chunkID))
}

func listChunksByFile(ctx context.Context, q querier, fileID int64) ([]*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE file_id = ? ORDER BY position`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*Chunk, 0)
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func deleteChunksByFile(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM chunks WHERE file_id = ?`, fileID)
	return err
}

// Status operations

func getStatus(ctx context.Context, q querier, projectID int64) (*ProjectStatus, error) {
	project, err := getProjectByID(ctx, q, projectID)
	if err != nil {
		return nil, err
	}

	status := &ProjectStatus{
		Project:       project,
		LastChunkedAt: project.LastChunkedAt,
		ChunksByKind:  make(map[string]int),
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN degraded THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN chunk_error IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM files WHERE project_id = ?
	`, projectID).Scan(&status.FilesCount, &status.DegradedFiles, &status.FailedFiles)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT c.kind, COUNT(*) FROM chunks c
		JOIN files f ON c.file_id = f.id
		WHERE f.project_id = ?
		GROUP BY c.kind
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		status.ChunksByKind[kind] = n
		status.ChunksCount += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()

	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	var fts string
	ftsErr := q.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE name = 'chunks_fts'").Scan(&fts)
	status.Health = HealthStatus{
		DatabaseAccessible: true,
		FTSIndexesBuilt:    ftsErr == nil,
	}
	return status, nil
}

// SQLiteStorage methods run against the database handle

func (s *SQLiteStorage) CreateProject(ctx context.Context, project *Project) error {
	return createProject(ctx, s.db, project)
}

func (s *SQLiteStorage) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return getProject(ctx, s.db, rootPath)
}

func (s *SQLiteStorage) UpdateProject(ctx context.Context, project *Project) error {
	return updateProject(ctx, s.db, project)
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, file *File) error {
	return upsertFile(ctx, s.db, file)
}

func (s *SQLiteStorage) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return getFile(ctx, s.db, projectID, filePath)
}

func (s *SQLiteStorage) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return getFileByID(ctx, s.db, fileID)
}

func (s *SQLiteStorage) GetFileByHash(ctx context.Context, projectID int64, contentHash [32]byte) (*File, error) {
	return getFileByHash(ctx, s.db, projectID, contentHash)
}

func (s *SQLiteStorage) DeleteFile(ctx context.Context, fileID int64) error {
	return deleteFile(ctx, s.db, fileID)
}

func (s *SQLiteStorage) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return listFiles(ctx, s.db, projectID)
}

func (s *SQLiteStorage) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return upsertChunk(ctx, s.db, chunk)
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return getChunk(ctx, s.db, chunkID)
}

func (s *SQLiteStorage) ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error) {
	return listChunksByFile(ctx, s.db, fileID)
}

func (s *SQLiteStorage) DeleteChunksByFile(ctx context.Context, fileID int64) error {
	return deleteChunksByFile(ctx, s.db, fileID)
}

func (s *SQLiteStorage) SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, s.db, projectID, query, limit, filters)
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return getStatus(ctx, s.db, projectID)
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Commit() error   { return t.tx.Commit() }
func (t *sqliteTx) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the parent storage owns the connection.
func (t *sqliteTx) Close() error { return nil }

// BeginTx rejects nested transactions
func (t *sqliteTx) BeginTx(context.Context) (Tx, error) {
	return nil, errors.New("nested transactions are not supported")
}

func (t *sqliteTx) CreateProject(ctx context.Context, project *Project) error {
	return createProject(ctx, t.tx, project)
}

func (t *sqliteTx) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return getProject(ctx, t.tx, rootPath)
}

func (t *sqliteTx) UpdateProject(ctx context.Context, project *Project) error {
	return updateProject(ctx, t.tx, project)
}

func (t *sqliteTx) UpsertFile(ctx context.Context, file *File) error {
	return upsertFile(ctx, t.tx, file)
}

func (t *sqliteTx) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return getFile(ctx, t.tx, projectID, filePath)
}

func (t *sqliteTx) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return getFileByID(ctx, t.tx, fileID)
}

func (t *sqliteTx) GetFileByHash(ctx context.Context, projectID int64, contentHash [32]byte) (*File, error) {
	return getFileByHash(ctx, t.tx, projectID, contentHash)
}

func (t *sqliteTx) DeleteFile(ctx context.Context, fileID int64) error {
	return deleteFile(ctx, t.tx, fileID)
}

func (t *sqliteTx) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return listFiles(ctx, t.tx, projectID)
}

func (t *sqliteTx) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return upsertChunk(ctx, t.tx, chunk)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return getChunk(ctx, t.tx, chunkID)
}

func (t *sqliteTx) ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error) {
	return listChunksByFile(ctx, t.tx, fileID)
}

func (t *sqliteTx) DeleteChunksByFile(ctx context.Context, fileID int64) error {
	return deleteChunksByFile(ctx, t.tx, fileID)
}

func (t *sqliteTx) SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, t.tx, projectID, query, limit, filters)
}

func (t *sqliteTx) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return getStatus(ctx, t.tx, projectID)
}
