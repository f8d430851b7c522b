package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/cogniscan/pkg/document"
	"github.com/artem13815/cogniscan/pkg/llm"
)

// Контекст для модели ограничен, чтобы не выходить за лимиты запроса.
const maxContextChars = 12000

const systemPrompt = `You are a resume analysis assistant. Your task is to help HR find suitable candidates.

When the user asks about candidates:
1. Use only the candidate summaries provided below the question
2. Find candidates matching the requirements
3. For each candidate, explain why they match
4. Rate their fit for the role (High/Medium/Low)
5. Be specific and do not invent facts that are not in the summaries`

// UseCase — сценарии диалога с ассистентом по загруженным резюме.
type UseCase interface {
	Ask(ctx context.Context, sessionID, message string) (Answer, error)
	History(ctx context.Context, sessionID string) (Session, error)
}

type service struct {
	docs     document.Repository
	sessions SessionRepository
	model    llm.ChatModel
	logger   *slog.Logger
}

// NewService создаёт сервис чата. model может быть nil — тогда все ответы
// собирает эвристика Fallback.
func NewService(docs document.Repository, sessions SessionRepository, model llm.ChatModel, logger *slog.Logger) UseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{docs: docs, sessions: sessions, model: model, logger: logger}
}

// Ask отвечает на вопрос пользователя в рамках сессии. Пустой sessionID
// начинает новую сессию. Недоступность модели не является ошибкой:
// ответ собирается из обработанных документов, статус — StatusFallback.
func (s *service) Ask(ctx context.Context, sessionID, message string) (Answer, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Answer{}, ErrEmptyMessage
	}

	now := time.Now().UTC()
	sess := Session{ID: sessionID, CreatedAt: now}
	if sessionID == "" {
		sess.ID = uuid.NewString()
	} else {
		loaded, err := s.sessions.Get(ctx, sessionID)
		switch {
		case err == nil:
			sess = loaded
		case errors.Is(err, ErrSessionNotFound):
			// истёкшая или чужая сессия продолжается с чистой историей
		default:
			return Answer{}, fmt.Errorf("load chat session: %w", err)
		}
	}

	docs, err := s.docs.ListProcessed(ctx)
	if err != nil {
		return Answer{}, fmt.Errorf("list processed documents: %w", err)
	}

	status := StatusCompleted
	reply := ""
	if s.model != nil {
		reply, err = s.model.Ask(ctx, systemPrompt, buildUserPrompt(message, candidateDigest(docs)))
		if err != nil {
			s.logger.Warn("chat.llm.unavailable", "err", err)
			reply = ""
		}
	}
	if strings.TrimSpace(reply) == "" {
		reply = Fallback(message, docs)
		status = StatusFallback
	}

	sess.Messages = append(sess.Messages,
		Message{Role: RoleUser, Content: message, CreatedAt: now},
		Message{Role: RoleAssistant, Content: reply, CreatedAt: now},
	)
	sess.UpdatedAt = now
	if err := s.sessions.Save(ctx, sess); err != nil {
		// история вторична, ответ важнее
		s.logger.Warn("chat.session.save_failed", "session_id", sess.ID, "err", err)
	}

	return Answer{
		Message:   message,
		Response:  reply,
		SessionID: sess.ID,
		Status:    status,
	}, nil
}

func (s *service) History(ctx context.Context, sessionID string) (Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Session{}, ErrSessionNotFound
	}
	return s.sessions.Get(ctx, sessionID)
}

func buildUserPrompt(message, digest string) string {
	return fmt.Sprintf("Question:\n%s\n\nCandidate summaries:\n<<<\n%s\n>>>", message, digest)
}

// candidateDigest собирает сводку по кандидатам для контекста модели,
// обрезая список по maxContextChars.
func candidateDigest(docs []document.Document) string {
	var b strings.Builder
	for _, d := range docs {
		line := fmt.Sprintf("- %s — %s at %s (%.1f yrs, %s; skills: %s)\n",
			displayName(d),
			valueOr(d.Facts.CurrentRole, "Unknown"),
			valueOr(d.Facts.CurrentCompany, "Unknown"),
			d.Facts.YearsExperience,
			valueOr(d.Facts.Domain, "general"),
			valueOr(strings.Join(d.Facts.Skills, ", "), "none listed"),
		)
		if b.Len()+len(line) > maxContextChars {
			break
		}
		b.WriteString(line)
	}
	if b.Len() == 0 {
		return "(no processed resumes yet)"
	}
	return b.String()
}

func displayName(d document.Document) string {
	if strings.TrimSpace(d.Facts.Name) != "" {
		return d.Facts.Name
	}
	if d.OriginalFilename != "" {
		return d.OriginalFilename
	}
	return "Unknown"
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
