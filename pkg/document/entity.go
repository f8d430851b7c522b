package document

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file is too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "processing_failed"
)

// Document хранит метаданные загруженного файла и извлечённые факты.
type Document struct {
	ID               uuid.UUID      `json:"id"`
	OriginalFilename string         `json:"originalFilename"`
	StoredName       string         `json:"storedName"`
	FileType         string         `json:"fileType"`
	FileSize         int64          `json:"fileSize"`
	Status           Status         `json:"status"`
	ProcessingError  string         `json:"processingError,omitempty"`
	IsIndexed        bool           `json:"isIndexed"`
	ChunkCount       int            `json:"chunkCount"`
	Facts            CandidateFacts `json:"facts"`
	CreatedAt        time.Time      `json:"createdAt"`
	ProcessedAt      *time.Time     `json:"processedAt,omitempty"`
}

// CandidateFacts — структурированное представление кандидата, извлечённое из текста.
type CandidateFacts struct {
	Name            string           `json:"name,omitempty"`
	Email           string           `json:"email,omitempty"`
	Phone           string           `json:"phone,omitempty"`
	CurrentRole     string           `json:"currentRole,omitempty"`
	CurrentCompany  string           `json:"currentCompany,omitempty"`
	YearsExperience float64          `json:"yearsExperience"`
	Domain          string           `json:"domain,omitempty"`
	Skills          []string         `json:"skills"`
	Technologies    []string         `json:"technologies"`
	Experience      []ExperienceItem `json:"experience"`
	Education       []EducationItem  `json:"education"`
}

type ExperienceItem struct {
	Role    string `json:"role"`
	Company string `json:"company"`
	Start   string `json:"start"`  // YYYY or MM/YYYY token
	End     string `json:"end"`    // YYYY token or "present"/"current"
	Period  string `json:"period"` // "2019 - 2022" or "2021 - present"
}

type EducationItem struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
}

// Chunk — фрагмент извлечённого текста для индексации.
type Chunk struct {
	DocumentID uuid.UUID `json:"documentId"`
	Index      int       `json:"index"`
	Content    string    `json:"content"`
	Size       int       `json:"size"`
}

// Repository — порт доступа к документам.
type Repository interface {
	Create(ctx context.Context, d Document) error
	GetByID(ctx context.Context, id uuid.UUID) (Document, error)
	List(ctx context.Context, limit, offset int) ([]Document, error)
	Count(ctx context.Context) (int, error)
	ListProcessed(ctx context.Context) ([]Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, processingError string) error
	// SaveResult атомарно фиксирует результат обработки: факты, статус и чанки.
	SaveResult(ctx context.Context, d Document, chunks []Chunk) error
	ListChunks(ctx context.Context, documentID uuid.UUID) ([]Chunk, error)
	// Delete возвращает удалённый документ, чтобы вызвавший мог убрать файл из хранилища.
	Delete(ctx context.Context, id uuid.UUID) (Document, error)
}
