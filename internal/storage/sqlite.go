package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"driftsim/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveBatch(ctx context.Context, batch model.Batch) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeBatch(batch)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO batches (id, created_at, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, batch.ID, batch.CreatedAt.UnixNano(), batch.SchemaVersion, batch.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetBatch(ctx context.Context, id string) (model.Batch, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Batch{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM batches WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Batch{}, false, nil
		}
		return model.Batch{}, false, err
	}

	batch, err := DecodeBatch(payload)
	if err != nil {
		return model.Batch{}, false, fmt.Errorf("decode batch %s: %w", id, err)
	}
	return batch, true, nil
}

func (s *SQLiteStore) ListBatches(ctx context.Context, limit int) ([]model.Batch, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, payload FROM batches
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []model.Batch
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		batch, err := DecodeBatch(payload)
		if err != nil {
			return nil, fmt.Errorf("decode batch %s: %w", id, err)
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

func (s *SQLiteStore) SaveReplicates(ctx context.Context, batchID string, replicates []model.Replicate) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeReplicates(replicates)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO replicates (batch_id, payload)
		VALUES (?, ?)
		ON CONFLICT(batch_id) DO UPDATE SET
			payload = excluded.payload
	`, batchID, payload)
	return err
}

func (s *SQLiteStore) GetReplicates(ctx context.Context, batchID string) ([]model.Replicate, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM replicates WHERE batch_id = ?`, batchID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	replicates, err := DecodeReplicates(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode replicates %s: %w", batchID, err)
	}
	return replicates, true, nil
}

func (s *SQLiteStore) SaveSummary(ctx context.Context, summary model.Summary) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeSummary(summary)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO summaries (batch_id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(batch_id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, summary.BatchID, summary.SchemaVersion, summary.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetSummary(ctx context.Context, batchID string) (model.Summary, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Summary{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM summaries WHERE batch_id = ?`, batchID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Summary{}, false, nil
		}
		return model.Summary{}, false, err
	}

	summary, err := DecodeSummary(payload)
	if err != nil {
		return model.Summary{}, false, fmt.Errorf("decode summary %s: %w", batchID, err)
	}
	return summary, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS batches_created_at ON batches (created_at);
		CREATE TABLE IF NOT EXISTS replicates (
			batch_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS summaries (
			batch_id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
