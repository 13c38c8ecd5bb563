// Package repository stores the per-line extraction table in PostgreSQL.
package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/rgra/examiner-check/internal/examiner/domain"
	"github.com/rgra/examiner-check/pkg/database"
)

// Schema creates the line table. It is safe to run on every start.
const Schema = `
	CREATE TABLE IF NOT EXISTS examiner_lines (
		id BIGSERIAL PRIMARY KEY,
		run_id TEXT NOT NULL,
		application_number TEXT NOT NULL,
		document_number TEXT NOT NULL,
		file_name TEXT NOT NULL,
		digest TEXT NOT NULL DEFAULT '',
		line_number INTEGER NOT NULL,
		text TEXT NOT NULL,
		line_ratio INTEGER NOT NULL,
		is_examiner_name BOOLEAN NOT NULL,
		ocr_examiner TEXT NOT NULL,
		registry_examiner TEXT NOT NULL,
		ratio INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (run_id, application_number, file_name, line_number)
	);

	CREATE INDEX IF NOT EXISTS idx_examiner_lines_application ON examiner_lines(application_number);
`

const insertLineQuery = `
	INSERT INTO examiner_lines (
		run_id, application_number, document_number, file_name, digest, line_number,
		text, line_ratio, is_examiner_name, ocr_examiner, registry_examiner, ratio
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

const selectColumns = `
	run_id, application_number, document_number, file_name, digest, line_number,
	text, line_ratio, is_examiner_name, ocr_examiner, registry_examiner, ratio
`

const listByRunQuery = `SELECT` + selectColumns + `FROM examiner_lines WHERE run_id = $1
	ORDER BY id`

const listExaminerLinesQuery = `SELECT` + selectColumns + `FROM examiner_lines
	WHERE application_number = $1 AND is_examiner_name ORDER BY id`

// LineRepository handles line record persistence
type LineRepository struct {
	db *database.DB
}

// NewLineRepository creates a new line repository
func NewLineRepository(db *database.DB) *LineRepository {
	return &LineRepository{db: db}
}

// Migrate creates the table if it does not exist.
func (r *LineRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return database.Wrap("migrate examiner_lines", err)
	}
	return nil
}

// InsertDocument stores all lines of one document atomically.
func (r *LineRepository) InsertDocument(ctx context.Context, lines []domain.LineRecord) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, l := range lines {
			if _, err := tx.ExecContext(ctx, insertLineQuery,
				l.RunID, l.ApplicationNumber, l.DocumentNumber, l.FileName, l.Digest, l.LineNumber,
				l.Text, l.LineRatio, l.IsExaminerName, l.OCRExaminer, l.RegistryExaminer, l.Ratio,
			); err != nil {
				return database.Wrap("insert line", err)
			}
		}
		return nil
	})
}

// ListByRun returns the lines stored for a run in insertion order.
func (r *LineRepository) ListByRun(ctx context.Context, runID string) ([]domain.LineRecord, error) {
	lines := []domain.LineRecord{}
	if err := r.db.SelectContext(ctx, &lines, listByRunQuery, runID); err != nil {
		return nil, database.Wrap("list lines", err)
	}
	return lines, nil
}

// ListExaminerLines returns the lines of an application that matched the
// registry examiner name, across runs.
func (r *LineRepository) ListExaminerLines(ctx context.Context, application string) ([]domain.LineRecord, error) {
	lines := []domain.LineRecord{}
	if err := r.db.SelectContext(ctx, &lines, listExaminerLinesQuery, application); err != nil {
		return nil, database.Wrap("list examiner lines", err)
	}
	return lines, nil
}

// Sink adapts the repository to the pipeline: each document's lines are
// inserted as soon as the document is done.
type Sink struct {
	repo *LineRepository
}

// NewSink creates a record store sink.
func NewSink(repo *LineRepository) *Sink {
	return &Sink{repo: repo}
}

func (s *Sink) Name() string { return "postgres" }

func (s *Sink) DocumentDone(ctx context.Context, _ string, _ domain.DocumentEntry, lines []domain.LineRecord) error {
	return s.repo.InsertDocument(ctx, lines)
}

func (s *Sink) RunDone(context.Context, *domain.Report) error {
	return nil
}
