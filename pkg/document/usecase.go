package document

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const downloadURLTTL = time.Hour

// ObjectStore — порт объектного хранилища файлов.
type ObjectStore interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, storedName string) error
	PresignedURL(ctx context.Context, storedName string, expiry time.Duration) (string, error)
}

// UploadInput — один входящий файл.
type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UseCase — операции интейка и управления документами. Извлечение текста
// запускается отдельно, см. pipeline.Processor.
type UseCase interface {
	Upload(ctx context.Context, in UploadInput) (Document, error)
	Get(ctx context.Context, id uuid.UUID) (Document, error)
	List(ctx context.Context, limit, offset int) ([]Document, int, error)
	Chunks(ctx context.Context, id uuid.UUID) ([]Chunk, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DownloadURL(ctx context.Context, id uuid.UUID) (string, error)
}

type service struct {
	repo    Repository
	store   ObjectStore
	maxSize int64
	allowed map[string]struct{}
	logger  *slog.Logger
}

func NewService(repo Repository, store ObjectStore, maxSize int64, allowedExtensions []string, logger *slog.Logger) UseCase {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &service{
		repo:    repo,
		store:   store,
		maxSize: maxSize,
		allowed: allowed,
		logger:  logger,
	}
}

// Upload валидирует файл, кладёт его в объектное хранилище и создаёт
// запись в статусе StatusUploaded. Если запись создать не удалось,
// загруженный объект удаляется, чтобы не копить сирот.
func (s *service) Upload(ctx context.Context, in UploadInput) (Document, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.Filename), "."))
	if _, ok := s.allowed[ext]; !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	if len(in.Data) == 0 {
		return Document{}, ErrEmptyFile
	}
	if s.maxSize > 0 && int64(len(in.Data)) > s.maxSize {
		return Document{}, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(in.Data), s.maxSize)
	}

	storedName, err := s.store.Upload(ctx, in.Filename, in.ContentType, in.Data)
	if err != nil {
		return Document{}, fmt.Errorf("store file: %w", err)
	}

	doc := Document{
		ID:               uuid.New(),
		OriginalFilename: in.Filename,
		StoredName:       storedName,
		FileType:         ext,
		FileSize:         int64(len(in.Data)),
		Status:           StatusUploaded,
		Facts: CandidateFacts{
			Skills:       []string{},
			Technologies: []string{},
			Experience:   []ExperienceItem{},
			Education:    []EducationItem{},
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if delErr := s.store.Delete(ctx, storedName); delErr != nil {
			s.logger.Warn("document.upload.orphan_cleanup_failed", "stored_name", storedName, "err", delErr)
		}
		return Document{}, fmt.Errorf("create document: %w", err)
	}

	s.logger.Info("document.uploaded",
		"id", doc.ID,
		"filename", doc.OriginalFilename,
		"file_type", doc.FileType,
		"size", doc.FileSize,
	)
	return doc, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Document, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, limit, offset int) ([]Document, int, error) {
	docs, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (s *service) Chunks(ctx context.Context, id uuid.UUID) ([]Chunk, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListChunks(ctx, id)
}

// Delete убирает запись вместе с файлом. Файл чистится best-effort:
// запись уже удалена, и повторить удаление объекта некому.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.StoredName); err != nil {
		s.logger.Warn("document.delete.blob_failed", "id", id, "stored_name", doc.StoredName, "err", err)
	}
	s.logger.Info("document.deleted", "id", id)
	return nil
}

func (s *service) DownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignedURL(ctx, doc.StoredName, downloadURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return url, nil
}
