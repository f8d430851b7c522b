package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/cogniscan/pkg/document"
)

type fakeRepo struct {
	mu        sync.Mutex
	statuses  []document.Status
	lastError string
	saved     *document.Document
	chunks    []document.Chunk
	saveErr   error
	statusErr error
}

func (r *fakeRepo) Create(context.Context, document.Document) error { return nil }
func (r *fakeRepo) GetByID(context.Context, uuid.UUID) (document.Document, error) {
	return document.Document{}, document.ErrNotFound
}
func (r *fakeRepo) List(context.Context, int, int) ([]document.Document, error) { return nil, nil }
func (r *fakeRepo) Count(context.Context) (int, error)                          { return 0, nil }
func (r *fakeRepo) ListProcessed(context.Context) ([]document.Document, error)  { return nil, nil }
func (r *fakeRepo) ListChunks(context.Context, uuid.UUID) ([]document.Chunk, error) {
	return nil, nil
}
func (r *fakeRepo) Delete(context.Context, uuid.UUID) (document.Document, error) {
	return document.Document{}, document.ErrNotFound
}

func (r *fakeRepo) UpdateStatus(_ context.Context, _ uuid.UUID, status document.Status, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statusErr != nil {
		return r.statusErr
	}
	r.statuses = append(r.statuses, status)
	r.lastError = processingError
	return nil
}

func (r *fakeRepo) SaveResult(_ context.Context, d document.Document, chunks []document.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = &d
	r.chunks = chunks
	return nil
}

type fakeStore struct {
	blobs map[string][]byte
	err   error
}

func (s *fakeStore) Fetch(_ context.Context, storedName string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, ok := s.blobs[storedName]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type fakeEmbedder struct {
	err   error
	calls int
	texts []string
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.texts = texts
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDoc(fileType string) document.Document {
	return document.Document{
		ID:               uuid.New(),
		OriginalFilename: "resume." + fileType,
		StoredName:       "stored-object",
		FileType:         fileType,
		Status:           document.StatusUploaded,
	}
}

const resumeText = `Jane Doe
Software Engineer

Contact: jane@example.com

Senior Engineer
2019 - present
Initech

Skills: Python, Docker, PostgreSQL`

func TestProcessor_Success(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStore{blobs: map[string][]byte{"stored-object": []byte(resumeText)}}
	embedder := &fakeEmbedder{}
	p := NewProcessor(repo, store, embedder, testLogger())

	doc := testDoc("txt")
	res := p.Process(context.Background(), doc)

	assert.Equal(t, document.StatusProcessed, res.Status)
	require.NoError(t, res.Err)
	assert.True(t, res.Indexed)
	assert.Greater(t, res.ChunkCount, 0)

	require.NotNil(t, repo.saved)
	assert.Equal(t, document.StatusProcessed, repo.saved.Status)
	assert.Equal(t, "Jane Doe", repo.saved.Facts.Name)
	assert.Equal(t, "jane@example.com", repo.saved.Facts.Email)
	assert.True(t, repo.saved.IsIndexed)
	assert.NotNil(t, repo.saved.ProcessedAt)
	assert.Len(t, repo.chunks, res.ChunkCount)
	for i, c := range repo.chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, len(c.Content), c.Size)
		assert.Equal(t, doc.ID, c.DocumentID)
	}
	assert.Equal(t, 1, embedder.calls)
	assert.Contains(t, repo.statuses, document.StatusProcessing)
}

func TestProcessor_UnsupportedType(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStore{blobs: map[string][]byte{"stored-object": []byte("binary junk")}}
	p := NewProcessor(repo, store, &fakeEmbedder{}, testLogger())

	res := p.Process(context.Background(), testDoc("exe"))

	assert.Equal(t, document.StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, document.ErrUnsupportedType)
	assert.Contains(t, res.Err.Error(), "exe")

	// terminal failure is recorded, nothing was saved
	assert.Equal(t, document.StatusFailed, repo.statuses[len(repo.statuses)-1])
	assert.Contains(t, repo.lastError, "exe")
	assert.Nil(t, repo.saved)
	assert.Empty(t, repo.chunks)
}

func TestProcessor_FetchFailure(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStore{err: errors.New("minio down")}
	p := NewProcessor(repo, store, &fakeEmbedder{}, testLogger())

	res := p.Process(context.Background(), testDoc("txt"))

	assert.Equal(t, document.StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.Contains(t, repo.lastError, "minio down")
	assert.Nil(t, repo.saved)
}

func TestProcessor_EmbeddingFailureIsNonFatal(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStore{blobs: map[string][]byte{"stored-object": []byte(resumeText)}}
	embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
	p := NewProcessor(repo, store, embedder, testLogger())

	res := p.Process(context.Background(), testDoc("txt"))

	assert.Equal(t, document.StatusProcessed, res.Status)
	assert.NoError(t, res.Err)
	assert.False(t, res.Indexed)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "embedding unavailable")

	require.NotNil(t, repo.saved)
	assert.False(t, repo.saved.IsIndexed)
	assert.Equal(t, document.StatusProcessed, repo.saved.Status)
}

func TestProcessor_NoEmbedderStillProcesses(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStore{blobs: map[string][]byte{"stored-object": []byte(resumeText)}}
	p := NewProcessor(repo, store, nil, testLogger())

	res := p.Process(context.Background(), testDoc("txt"))

	assert.Equal(t, document.StatusProcessed, res.Status)
	assert.False(t, res.Indexed)
}

func TestProcessor_GarbagePdfDegradesToEmptyDocument(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStore{blobs: map[string][]byte{"stored-object": []byte("not really a pdf")}}
	embedder := &fakeEmbedder{}
	p := NewProcessor(repo, store, embedder, testLogger())

	res := p.Process(context.Background(), testDoc("pdf"))

	// unreadable pdf degrades to an empty, unindexed but processed document
	assert.Equal(t, document.StatusProcessed, res.Status)
	assert.NoError(t, res.Err)
	assert.NotEmpty(t, res.Warnings)
	assert.Equal(t, 0, res.ChunkCount)
	assert.False(t, res.Indexed)
	assert.Equal(t, 0, embedder.calls)

	require.NotNil(t, repo.saved)
	assert.Equal(t, "", repo.saved.Facts.Name)
}

func TestProcessor_MarkProcessingFailure(t *testing.T) {
	repo := &fakeRepo{statusErr: errors.New("db closed")}
	store := &fakeStore{blobs: map[string][]byte{"stored-object": []byte(resumeText)}}
	p := NewProcessor(repo, store, &fakeEmbedder{}, testLogger())

	res := p.Process(context.Background(), testDoc("txt"))

	assert.Equal(t, document.StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "mark processing")
	assert.Nil(t, repo.saved)
}

func TestProcessor_SaveFailure(t *testing.T) {
	repo := &fakeRepo{saveErr: errors.New("db unavailable")}
	store := &fakeStore{blobs: map[string][]byte{"stored-object": []byte(resumeText)}}
	p := NewProcessor(repo, store, &fakeEmbedder{}, testLogger())

	res := p.Process(context.Background(), testDoc("txt"))

	assert.Equal(t, document.StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.Contains(t, repo.lastError, "db unavailable")
}
