package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/cogniscan/pkg/document"
	"github.com/artem13815/cogniscan/pkg/extract"
)

// BlobFetcher resolves stored document bytes.
type BlobFetcher interface {
	Fetch(ctx context.Context, storedName string) ([]byte, error)
}

// Embedder turns chunk contents into vectors. Best-effort collaborator:
// failures degrade the document to non-indexed instead of failing it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Result — итог одного прохода обработки документа.
type Result struct {
	Status     document.Status
	Err        error // set only when Status is StatusFailed
	Warnings   []string
	ChunkCount int
	Indexed    bool
}

// Processor последовательно выполняет извлечение текста, разбор фактов,
// чанкинг и сохранение результата для одного документа. Process не
// возвращает ошибок: любой сбой фиксируется в Result и в статусе документа.
type Processor struct {
	repo     document.Repository
	store    BlobFetcher
	embedder Embedder
	fields   *extract.FieldExtractor
	chunker  *extract.Chunker
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewProcessor(repo document.Repository, store BlobFetcher, embedder Embedder, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:     repo,
		store:    store,
		embedder: embedder,
		fields:   extract.NewFieldExtractor(),
		chunker:  extract.NewChunker(),
		logger:   logger,
		locks:    map[uuid.UUID]*sync.Mutex{},
	}
}

// lock serializes processing per document: two concurrent passes over the
// same document would race on its chunk rows.
func (p *Processor) lock(id uuid.UUID) func() {
	p.mu.Lock()
	m, ok := p.locks[id]
	if !ok {
		m = &sync.Mutex{}
		p.locks[id] = m
	}
	p.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// Process прогоняет документ через пайплайн и оставляет его в терминальном
// состоянии processed либо processing_failed.
func (p *Processor) Process(ctx context.Context, doc document.Document) Result {
	unlock := p.lock(doc.ID)
	defer unlock()

	p.logger.Info("pipeline.process.start", "document_id", doc.ID, "file_type", doc.FileType)

	if err := p.repo.UpdateStatus(ctx, doc.ID, document.StatusProcessing, ""); err != nil {
		return p.fail(ctx, doc.ID, fmt.Errorf("mark processing: %w", err))
	}

	data, err := p.store.Fetch(ctx, doc.StoredName)
	if err != nil {
		return p.fail(ctx, doc.ID, fmt.Errorf("fetch %s: %w", doc.StoredName, err))
	}

	text, warnings, err := extract.Text(doc.FileType, data)
	if err != nil {
		return p.fail(ctx, doc.ID, err)
	}
	for _, w := range warnings {
		p.logger.Warn("pipeline.extract.degraded", "document_id", doc.ID, "reason", w)
	}
	p.logger.Info("pipeline.extract.ok", "document_id", doc.ID, "chars", len(text))

	facts := p.fields.Extract(text)

	contents := p.chunker.Split(text)
	chunks := make([]document.Chunk, 0, len(contents))
	for i, content := range contents {
		chunks = append(chunks, document.Chunk{
			DocumentID: doc.ID,
			Index:      i,
			Content:    content,
			Size:       len(content),
		})
	}

	indexed := false
	if p.embedder != nil && len(contents) > 0 {
		if _, err := p.embedder.Embed(ctx, contents); err != nil {
			warnings = append(warnings, fmt.Sprintf("embedding unavailable: %v", err))
			p.logger.Warn("pipeline.embed.degraded", "document_id", doc.ID, "err", err)
		} else {
			indexed = true
		}
	}

	now := time.Now()
	doc.Status = document.StatusProcessed
	doc.ProcessingError = ""
	doc.IsIndexed = indexed
	doc.ChunkCount = len(chunks)
	doc.Facts = facts
	doc.ProcessedAt = &now

	if err := p.repo.SaveResult(ctx, doc, chunks); err != nil {
		return p.fail(ctx, doc.ID, fmt.Errorf("save result: %w", err))
	}

	p.logger.Info("pipeline.process.ok",
		"document_id", doc.ID,
		"chunks", len(chunks),
		"indexed", indexed,
		"skills", len(facts.Skills),
	)
	return Result{
		Status:     document.StatusProcessed,
		Warnings:   warnings,
		ChunkCount: len(chunks),
		Indexed:    indexed,
	}
}

func (p *Processor) fail(ctx context.Context, id uuid.UUID, cause error) Result {
	p.logger.Error("pipeline.process.failed", "document_id", id, "err", cause)
	if err := p.repo.UpdateStatus(ctx, id, document.StatusFailed, cause.Error()); err != nil {
		p.logger.Error("pipeline.mark_failed.error", "document_id", id, "err", err)
	}
	return Result{Status: document.StatusFailed, Err: cause}
}
