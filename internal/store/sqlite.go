package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	internalerrors "github.com/retrievalcore/engine/internal/errors"
)

// SQLiteStore implements MetadataStore over an embedded SQLite database:
// a chunk table, an FTS5 full-text index kept in lockstep with it, a
// retrieval-log table, and a workspace_metadata key/value table. It uses
// WAL mode for concurrent reader access from cloned worker handles.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var _ MetadataStore = (*SQLiteStore)(nil)

// validateIntegrity checks an existing database file before opening it.
// A missing file is not an error: it will be created fresh.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                       WHERE type='table' AND name='embeddings'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("cannot query schema: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("embeddings table missing")
	}

	return nil
}

// Open opens (creating if necessary) the workspace database at path. An
// empty path opens an in-memory store, used by tests. Corrupted on-disk
// stores are logged and discarded rather than surfaced as a fatal error,
// since rebuilding is cheaper than failing closed.
func Open(path string) (*SQLiteStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, internalerrors.StorageFatal(internalerrors.ErrCodeStoreOpenFailed,
				fmt.Sprintf("failed to create directory %s", dir), err)
		}

		if validErr := validateIntegrity(path); validErr != nil {
			slog.Warn("workspace_store_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, internalerrors.StorageFatal(internalerrors.ErrCodeSchemaCorrupt,
					fmt.Sprintf("workspace store corrupted at %s and cannot remove (original error: %v)", path, validErr), removeErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")

			slog.Info("workspace_store_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, recreating"))
		}

		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, internalerrors.StorageFatal(internalerrors.ErrCodeStoreOpenFailed, "failed to open database", err)
	}

	// Single writer: SQLite serializes writers regardless, and a pool of
	// one avoids lock-contention errors surfacing as query failures.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, internalerrors.StorageFatal(internalerrors.ErrCodeStoreOpenFailed, "failed to set pragma", err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, internalerrors.StorageFatal(internalerrors.ErrCodeMigrationFailed, "failed to migrate schema", err)
	}
	return s, nil
}

// CloneWorker opens a second handle onto the same on-disk database for a
// search worker. Workers only ever read; all writes go through the
// primary handle returned by Open. An in-memory primary cannot be cloned
// since ":memory:" handles are not shared across connections.
func (s *SQLiteStore) CloneWorker() (*SQLiteStore, error) {
	if s.path == "" {
		return s, nil
	}
	dsn := s.path + "?mode=ro&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to clone worker handle: %w", err)
	}
	db.SetMaxOpenConns(4)
	return &SQLiteStore{db: db, path: s.path}, nil
}

// migrate brings the schema up to CurrentSchemaVersion using the
// database's own user_version pragma as the version ledger.
func (s *SQLiteStore) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version >= CurrentSchemaVersion {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS embeddings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_file TEXT NOT NULL,
		doc_id TEXT NOT NULL,
		page INTEGER NOT NULL DEFAULT 0,
		ordinal INTEGER NOT NULL DEFAULT 0,
		text TEXT NOT NULL,
		embedding BLOB,
		embedding_model TEXT NOT NULL DEFAULT '',
		embedding_dim INTEGER NOT NULL DEFAULT 0,
		heading_path TEXT NOT NULL DEFAULT '',
		heading_level INTEGER NOT NULL DEFAULT 0,
		chunk_type TEXT NOT NULL DEFAULT 'text',
		list_type TEXT NOT NULL DEFAULT '',
		list_length INTEGER NOT NULL DEFAULT 0,
		sentence_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		boost_factor REAL NOT NULL DEFAULT 1.0
	);

	-- FTS5 index over heading-augmented chunk text; rowid mirrors embeddings.id
	CREATE VIRTUAL TABLE IF NOT EXISTS embeddings_fts USING fts5(
		content,
		tokenize='unicode61'
	);

	CREATE TABLE IF NOT EXISTS retrieval_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		semantic_rank INTEGER NOT NULL DEFAULT 0,
		keyword_rank INTEGER NOT NULL DEFAULT 0,
		final_rank INTEGER NOT NULL DEFAULT 0,
		latency_embedding REAL NOT NULL DEFAULT 0,
		latency_search REAL NOT NULL DEFAULT 0,
		latency_fusion REAL NOT NULL DEFAULT 0,
		latency_rerank REAL NOT NULL DEFAULT 0,
		top_score REAL NOT NULL DEFAULT 0,
		mmr_penalty_total REAL NOT NULL DEFAULT 0,
		is_exploration INTEGER NOT NULL DEFAULT 0,
		rank_delta INTEGER NOT NULL DEFAULT 0,
		stability REAL NOT NULL DEFAULT 1.0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_retrieval_logs_query ON retrieval_logs(query, created_at);

	CREATE TABLE IF NOT EXISTS workspace_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", CurrentSchemaVersion))
	return err
}

// chunkFTSContent builds the stored full-text row: the heading path with
// punctuation flattened to spaces, prepended as a context marker so heading
// words match keyword queries without polluting the chunk text itself.
func chunkFTSContent(c *Chunk) string {
	heading := strings.TrimSpace(normalizeHeading(c.HeadingPath))
	if heading == "" {
		return c.Text
	}
	return fmt.Sprintf("[CONTEXT: %s] %s", heading, c.Text)
}

func normalizeHeading(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	for _, r := range path {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CheckEmbeddingDimension enforces the embedding_dimension guardrail: the
// first registration (insert or query) for a workspace fixes the
// dimension in workspace_metadata; every later call with a mismatched
// dim is rejected with a dimension-mismatch error instead of touching the
// embeddings table or running a dense scan.
func (s *SQLiteStore) CheckEmbeddingDimension(ctx context.Context, dim int) error {
	if dim <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	var existing string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM workspace_metadata WHERE key = ?", MetaKeyEmbeddingDimension).Scan(&existing)
	if err == sql.ErrNoRows {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO workspace_metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING",
			MetaKeyEmbeddingDimension, fmt.Sprintf("%d", dim),
		)
		return err
	}
	if err != nil {
		return err
	}

	var registered int
	if _, scanErr := fmt.Sscanf(existing, "%d", &registered); scanErr != nil {
		return nil
	}
	if registered != dim {
		return internalerrors.DimensionMismatch(registered, dim)
	}
	return nil
}

// InsertChunk inserts a chunk and its FTS row in one transaction so the
// two tables never drift out of parity. A failure here is
// storage-recoverable: the caller logs it and keeps ingesting the rest
// of the batch. A dimension-mismatched embedding is rejected by the
// embedding_dimension guardrail before the insert is attempted.
func (s *SQLiteStore) InsertChunk(ctx context.Context, c *Chunk) (int64, error) {
	if len(c.Embedding) > 0 {
		if err := s.CheckEmbeddingDimension(ctx, len(c.Embedding)); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("store is closed")
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.BoostFactor == 0 {
		c.BoostFactor = 1.0
	}
	c.EmbeddingDim = len(c.Embedding)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO embeddings (
			source_file, doc_id, page, ordinal, text, embedding,
			embedding_model, embedding_dim, heading_path, heading_level,
			chunk_type, list_type, list_length, sentence_count,
			created_at, boost_factor
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.SourceFile, c.DocID, c.Page, c.Ordinal, c.Text, VectorToBlob(c.Embedding),
		c.EmbeddingModel, c.EmbeddingDim, c.HeadingPath, c.HeadingLevel,
		c.ChunkType, c.ListType, c.ListLength, c.SentenceCount,
		c.CreatedAt.Unix(), c.BoostFactor,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert chunk: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO embeddings_fts(rowid, content) VALUES (?, ?)`,
		id, chunkFTSContent(c),
	); err != nil {
		return 0, fmt.Errorf("failed to index chunk: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit chunk insert: %w", err)
	}

	c.ID = id
	return id, nil
}

const chunkColumns = `id, source_file, doc_id, page, ordinal, text, embedding,
	embedding_model, embedding_dim, heading_path, heading_level,
	chunk_type, list_type, list_length, sentence_count, created_at, boost_factor`

func scanChunk(row interface{ Scan(...any) error }) (*Chunk, error) {
	var c Chunk
	var blob []byte
	var createdAt int64
	if err := row.Scan(
		&c.ID, &c.SourceFile, &c.DocID, &c.Page, &c.Ordinal, &c.Text, &blob,
		&c.EmbeddingModel, &c.EmbeddingDim, &c.HeadingPath, &c.HeadingLevel,
		&c.ChunkType, &c.ListType, &c.ListLength, &c.SentenceCount,
		&createdAt, &c.BoostFactor,
	); err != nil {
		return nil, err
	}
	c.Embedding = BlobToVector(blob)
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &c, nil
}

// ScanAllChunks streams every chunk for dense search's brute-force scan.
func (s *SQLiteStore) ScanAllChunks(ctx context.Context) ([]*Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+chunkColumns+" FROM embeddings ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to scan chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// GetChunk retrieves a single chunk by ID.
func (s *SQLiteStore) GetChunk(ctx context.Context, id int64) (*Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+chunkColumns+" FROM embeddings WHERE id = ?", id)
	c, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chunk %d not found", id)
	}
	return c, err
}

// GetChunks retrieves chunks by ID in one query.
func (s *SQLiteStore) GetChunks(ctx context.Context, ids []int64) ([]*Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := "SELECT " + chunkColumns + " FROM embeddings WHERE id IN (" + strings.Join(placeholders, ",") + ")"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// KeywordQuery runs an FTS5 MATCH against the inverted index. Malformed
// FTS5 queries (unbalanced quotes, bad operators) degrade to an empty
// result rather than propagating a syntax error to the caller.
func (s *SQLiteStore) KeywordQuery(ctx context.Context, query string, limit int) ([]*Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	sqlQuery := `
		SELECT ` + prefixColumns("e") + `
		FROM embeddings_fts f
		JOIN embeddings e ON e.id = f.rowid
		WHERE f.content MATCH ?
		ORDER BY bm25(embeddings_fts)
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, sqlQuery, query, limit)
	if err != nil {
		if strings.Contains(err.Error(), "fts5:") || strings.Contains(err.Error(), "syntax error") ||
			strings.Contains(err.Error(), "unterminated string") {
			qerr := internalerrors.StorageRecoverable(internalerrors.ErrCodeQuerySyntax, "malformed full-text query", err)
			slog.Warn("keyword_query_degraded",
				slog.String("code", qerr.Code),
				slog.String("error", err.Error()))
			return nil, nil
		}
		return nil, fmt.Errorf("keyword query failed: %w", err)
	}
	defer rows.Close()

	var chunks []*Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func prefixColumns(alias string) string {
	cols := strings.Split(strings.ReplaceAll(chunkColumns, "\n", " "), ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// BoostChunk increments a chunk's boost_factor. Never invoked for
// exploration-tagged interactions; callers enforce that quarantine.
func (s *SQLiteStore) BoostChunk(ctx context.Context, id int64, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE embeddings SET boost_factor = MAX(0, boost_factor + ?) WHERE id = ?",
		delta, id,
	)
	return err
}

// GetMetadata reads a workspace_metadata value.
func (s *SQLiteStore) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, fmt.Errorf("store is closed")
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM workspace_metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetMetadata upserts a workspace_metadata value.
func (s *SQLiteStore) SetMetadata(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO workspace_metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// AppendRetrievalLog appends one row to the retrieval log.
func (s *SQLiteStore) AppendRetrievalLog(ctx context.Context, e *RetrievalLogEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("store is closed")
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO retrieval_logs (
			query, semantic_rank, keyword_rank, final_rank,
			latency_embedding, latency_search, latency_fusion, latency_rerank,
			top_score, mmr_penalty_total, is_exploration, rank_delta,
			stability, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Query, e.SemanticRank, e.KeywordRank, e.FinalRank,
		e.LatencyEmbedding, e.LatencySearch, e.LatencyFusion, e.LatencyRerank,
		e.TopScore, e.MMRPenaltyTotal, boolToInt(e.IsExploration), e.RankDelta,
		e.Stability, e.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append retrieval log: %w", err)
	}
	return res.LastInsertId()
}

// RecentRetrievalLogs returns up to limit most-recent non-exploration log
// rows for an exact query string, most-recent first. The stability
// regulator uses this to compute a per-query rank-delta average.
func (s *SQLiteStore) RecentRetrievalLogs(ctx context.Context, query string, limit int) ([]*RetrievalLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, semantic_rank, keyword_rank, final_rank,
			latency_embedding, latency_search, latency_fusion, latency_rerank,
			top_score, mmr_penalty_total, is_exploration, rank_delta,
			stability, created_at
		FROM retrieval_logs
		WHERE query = ? AND is_exploration = 0
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read retrieval logs: %w", err)
	}
	defer rows.Close()

	var entries []*RetrievalLogEntry
	for rows.Next() {
		var e RetrievalLogEntry
		var isExploration int
		var createdAt int64
		if err := rows.Scan(
			&e.ID, &e.Query, &e.SemanticRank, &e.KeywordRank, &e.FinalRank,
			&e.LatencyEmbedding, &e.LatencySearch, &e.LatencyFusion, &e.LatencyRerank,
			&e.TopScore, &e.MMRPenaltyTotal, &isExploration, &e.RankDelta,
			&e.Stability, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan retrieval log row: %w", err)
		}
		e.IsExploration = isExploration != 0
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Count returns the number of chunks in the workspace.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("store is closed")
	}

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&count)
	return count, err
}

// Clear deletes all chunks, FTS rows, and retrieval-log rows. Workspace
// metadata (including the embedding_dimension guardrail and persisted
// reranker calibration stats) survives a clear.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		"DELETE FROM embeddings_fts",
		"DELETE FROM embeddings",
		"DELETE FROM retrieval_logs",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear workspace: %w", err)
		}
	}

	return tx.Commit()
}

// Close releases the underlying database handle. Forces a WAL checkpoint
// first so the clone-per-worker handles see a consistent main database
// file without waiting for SQLite's own checkpoint schedule.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.db != nil {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
