// Package postgres persists document records in a single JSONB-backed table.
// Records are immutable once appended; listing orders by the serial insert
// position so results come back in ingestion order.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/docsift/docsift/internal/core/domain"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026090101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS document_records (
	seq BIGSERIAL PRIMARY KEY,
	classification_id TEXT NOT NULL UNIQUE,
	filename TEXT NOT NULL,
	schema_id TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	processed_at TIMESTAMPTZ NOT NULL,
	record JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_document_records_schema_id ON document_records(schema_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, record *domain.DocumentRecord) error {
	if record == nil {
		return domain.WrapError(domain.ErrInvalidInput, "append record", fmt.Errorf("nil record"))
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "encode record", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO document_records (classification_id, filename, schema_id, confidence, processed_at, record)
VALUES ($1,$2,$3,$4,$5,$6)
`,
		record.ClassificationID, record.Filename, record.SchemaID, record.Confidence, record.ProcessedAt, payload,
	)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "insert record", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, schemaID string) ([]domain.DocumentRecord, error) {
	const base = `SELECT record FROM document_records`

	var (
		rows *sql.Rows
		err  error
	)
	if schemaID == "" {
		rows, err = s.db.QueryContext(ctx, base+` ORDER BY seq`)
	} else {
		rows, err = s.db.QueryContext(ctx, base+` WHERE schema_id = $1 ORDER BY seq`, schemaID)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "query records", err)
	}
	defer rows.Close()

	records := make([]domain.DocumentRecord, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "scan record", err)
		}
		var record domain.DocumentRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "decode record", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "iterate records", err)
	}
	return records, nil
}
