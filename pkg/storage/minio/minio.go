package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrObjectNotFound = errors.New("object not found")

// Store хранит загруженные файлы в бакете MinIO/S3.
type Store struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Connect creates the client and makes sure the bucket exists. A failed
// bucket check is logged but does not prevent startup; the first upload
// will surface the real error.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	s := &Store{client: client, bucket: cfg.Bucket, logger: logger}
	if err := s.ensureBucket(ctx); err != nil {
		logger.Warn("minio.bucket.check_failed", "bucket", cfg.Bucket, "err", err)
	}
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

// Upload stores data under a fresh unique name that keeps the original
// file extension, and returns that name.
func (s *Store) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	storedName := uuid.NewString() + filepath.Ext(filename)
	_, err := s.client.PutObject(ctx, s.bucket, storedName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", storedName, err)
	}
	s.logger.Info("minio.upload", "filename", filename, "stored_name", storedName, "size", len(data))
	return storedName, nil
}

// Fetch reads the whole object into memory.
func (s *Store) Fetch(ctx context.Context, storedName string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, storedName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", storedName, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		// GetObject is lazy, a missing key only shows up on the first read
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, storedName)
		}
		return nil, fmt.Errorf("read object %s: %w", storedName, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, storedName string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, storedName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", storedName, err)
	}
	s.logger.Info("minio.delete", "stored_name", storedName)
	return nil
}

// PresignedURL выдаёт временную ссылку на скачивание объекта.
func (s *Store) PresignedURL(ctx context.Context, storedName string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, storedName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", storedName, err)
	}
	return u.String(), nil
}

// Ping используется health-check'ом.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}
