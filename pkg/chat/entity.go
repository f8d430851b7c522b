package chat

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrSessionNotFound = errors.New("chat session not found")
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// StatusCompleted — ответ получен от модели; StatusFallback — модель
	// недоступна, ответ собран эвристикой.
	StatusCompleted = "completed"
	StatusFallback  = "fallback"
)

// Message — одна реплика диалога.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session — история диалога. Живёт в Redis с ограниченным TTL.
type Session struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Answer — результат одного обращения к ассистенту.
type Answer struct {
	Message   string `json:"message"`
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

// SessionRepository — порт хранения сессий.
type SessionRepository interface {
	// Get возвращает ErrSessionNotFound, если сессии нет или она истекла.
	Get(ctx context.Context, id string) (Session, error)
	// Save сохраняет сессию и обновляет её TTL.
	Save(ctx context.Context, s Session) error
}
