package checkers

import (
	"context"
	"time"
)

// Pinger — минимальный контракт хранилища для проверки готовности.
type Pinger interface {
	Ping(ctx context.Context) error
}

type MinioChecker struct {
	store Pinger
}

func NewMinioChecker(store Pinger) *MinioChecker {
	return &MinioChecker{store: store}
}

func (c *MinioChecker) Name() string { return "minio" }

func (c *MinioChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.store.Ping(ctx)
}
