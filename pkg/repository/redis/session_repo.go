package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/artem13815/cogniscan/pkg/chat"
)

// Сессии живут сутки, каждый Save продлевает срок.
const sessionTTL = 24 * time.Hour

const sessionKeyPrefix = "chat:session:"

// SessionRepo хранит сессии чата в Redis как JSON.
type SessionRepo struct {
	client *redis.Client
}

func NewSessionRepo(client *redis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Get(ctx context.Context, id string) (chat.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return chat.Session{}, chat.ErrSessionNotFound
	}
	if err != nil {
		return chat.Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	var s chat.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return chat.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return s, nil
}

func (r *SessionRepo) Save(ctx context.Context, s chat.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+s.ID, data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}
