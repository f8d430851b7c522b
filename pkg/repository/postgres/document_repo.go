package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/cogniscan/pkg/document"
)

// DocumentRepository хранит метаданные документов, извлечённые факты и чанки.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

var _ document.Repository = (*DocumentRepository)(nil)

func NewDocumentRepository(pool *pgxpool.Pool) (*DocumentRepository, error) {
	r := &DocumentRepository{pool: pool}
	if err := r.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *DocumentRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS documents (
	id UUID PRIMARY KEY,
	original_filename TEXT NOT NULL,
	stored_name TEXT NOT NULL,
	file_type TEXT NOT NULL,
	file_size BIGINT NOT NULL,
	status TEXT NOT NULL,
	processing_error TEXT NOT NULL DEFAULT '',
	is_indexed BOOLEAN NOT NULL DEFAULT FALSE,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	facts JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	processed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE TABLE IF NOT EXISTS document_chunks (
	document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	chunk_index INTEGER NOT NULL,
	content TEXT NOT NULL,
	size INTEGER NOT NULL,
	PRIMARY KEY (document_id, chunk_index)
);
`)
	return err
}

const documentColumns = `id, original_filename, stored_name, file_type, file_size, status,
	processing_error, is_indexed, chunk_count, facts, created_at, processed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (document.Document, error) {
	var d document.Document
	var status string
	var factsBytes []byte
	var created time.Time
	var processed *time.Time
	err := row.Scan(&d.ID, &d.OriginalFilename, &d.StoredName, &d.FileType, &d.FileSize,
		&status, &d.ProcessingError, &d.IsIndexed, &d.ChunkCount, &factsBytes, &created, &processed)
	if err != nil {
		return document.Document{}, err
	}
	d.Status = document.Status(status)
	_ = json.Unmarshal(factsBytes, &d.Facts)
	d.CreatedAt = created.UTC()
	if processed != nil {
		t := processed.UTC()
		d.ProcessedAt = &t
	}
	return d, nil
}

func (r *DocumentRepository) Create(ctx context.Context, d document.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	factsJSON, err := json.Marshal(d.Facts)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO documents (id, original_filename, stored_name, file_type, file_size, status,
	processing_error, is_indexed, chunk_count, facts, created_at, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`, d.ID, d.OriginalFilename, d.StoredName, d.FileType, d.FileSize, string(d.Status),
		d.ProcessingError, d.IsIndexed, d.ChunkCount, factsJSON, d.CreatedAt, d.ProcessedAt)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (document.Document, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+documentColumns+` FROM documents WHERE id = $1
`, id)
	d, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return document.Document{}, document.ErrNotFound
	}
	return d, err
}

func (r *DocumentRepository) List(ctx context.Context, limit, offset int) ([]document.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
SELECT `+documentColumns+` FROM documents
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (r *DocumentRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

func (r *DocumentRepository) ListProcessed(ctx context.Context) ([]document.Document, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+documentColumns+` FROM documents
WHERE status = $1
ORDER BY created_at DESC
`, string(document.StatusProcessed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func collectDocuments(rows pgx.Rows) ([]document.Document, error) {
	var res []document.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status document.Status, processingError string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE documents SET status = $2, processing_error = $3 WHERE id = $1
`, id, string(status), processingError)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return document.ErrNotFound
	}
	return nil
}

// SaveResult фиксирует результат обработки одной транзакцией: метаданные
// документа обновляются, старые чанки удаляются, новые вставляются.
// Читатели не видят документ с чанками от двух разных прогонов.
func (r *DocumentRepository) SaveResult(ctx context.Context, d document.Document, chunks []document.Chunk) error {
	factsJSON, err := json.Marshal(d.Facts)
	if err != nil {
		return err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
UPDATE documents SET status = $2, processing_error = $3, is_indexed = $4,
	chunk_count = $5, facts = $6, processed_at = $7
WHERE id = $1
`, d.ID, string(d.Status), d.ProcessingError, d.IsIndexed, d.ChunkCount, factsJSON, d.ProcessedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return document.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, d.ID); err != nil {
		return err
	}
	if len(chunks) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"document_chunks"},
			[]string{"document_id", "chunk_index", "content", "size"},
			pgx.CopyFromSlice(len(chunks), func(i int) ([]any, error) {
				c := chunks[i]
				return []any{c.DocumentID, c.Index, c.Content, c.Size}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *DocumentRepository) ListChunks(ctx context.Context, documentID uuid.UUID) ([]document.Chunk, error) {
	rows, err := r.pool.Query(ctx, `
SELECT document_id, chunk_index, content, size
FROM document_chunks
WHERE document_id = $1
ORDER BY chunk_index
`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []document.Chunk
	for rows.Next() {
		var c document.Chunk
		if err := rows.Scan(&c.DocumentID, &c.Index, &c.Content, &c.Size); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// Delete удаляет документ и возвращает его, чтобы вызвавший мог убрать
// файл из объектного хранилища. Чанки удаляет каскад.
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) (document.Document, error) {
	row := r.pool.QueryRow(ctx, `
DELETE FROM documents WHERE id = $1
RETURNING `+documentColumns+`
`, id)
	d, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return document.Document{}, document.ErrNotFound
	}
	return d, err
}
