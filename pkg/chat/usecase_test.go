package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/cogniscan/pkg/document"
)

type stubDocs struct {
	docs []document.Document
	err  error
}

func (r *stubDocs) Create(context.Context, document.Document) error { return nil }
func (r *stubDocs) GetByID(context.Context, uuid.UUID) (document.Document, error) {
	return document.Document{}, document.ErrNotFound
}
func (r *stubDocs) List(context.Context, int, int) ([]document.Document, error) { return nil, nil }
func (r *stubDocs) Count(context.Context) (int, error)                          { return len(r.docs), nil }
func (r *stubDocs) ListProcessed(context.Context) ([]document.Document, error) {
	return r.docs, r.err
}
func (r *stubDocs) UpdateStatus(context.Context, uuid.UUID, document.Status, string) error {
	return nil
}
func (r *stubDocs) SaveResult(context.Context, document.Document, []document.Chunk) error {
	return nil
}
func (r *stubDocs) ListChunks(context.Context, uuid.UUID) ([]document.Chunk, error) {
	return nil, nil
}
func (r *stubDocs) Delete(context.Context, uuid.UUID) (document.Document, error) {
	return document.Document{}, document.ErrNotFound
}

type fakeSessions struct {
	store   map[string]Session
	getErr  error
	saveErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{store: map[string]Session{}}
}

func (f *fakeSessions) Get(_ context.Context, id string) (Session, error) {
	if f.getErr != nil {
		return Session{}, f.getErr
	}
	s, ok := f.store[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessions) Save(_ context.Context, s Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.store[s.ID] = s
	return nil
}

type fakeModel struct {
	reply      string
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeModel) Ask(_ context.Context, system, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	return f.reply, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func candidateDoc(name string, years float64, skills ...string) document.Document {
	return document.Document{
		ID:     uuid.New(),
		Status: document.StatusProcessed,
		Facts: document.CandidateFacts{
			Name:            name,
			YearsExperience: years,
			Skills:          skills,
		},
	}
}

func TestAsk_NewSessionWithModel(t *testing.T) {
	docs := &stubDocs{docs: []document.Document{candidateDoc("Alice Smith", 6, "Python")}}
	sessions := newFakeSessions()
	model := &fakeModel{reply: "Alice Smith is a strong fit (High)."}
	svc := NewService(docs, sessions, model, testLogger())

	ans, err := svc.Ask(context.Background(), "", "Who fits a Python role?")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, ans.Status)
	assert.Equal(t, "Who fits a Python role?", ans.Message)
	assert.Equal(t, model.reply, ans.Response)
	require.NotEmpty(t, ans.SessionID)

	assert.Contains(t, model.lastSystem, "resume analysis assistant")
	assert.Contains(t, model.lastUser, "Who fits a Python role?")
	assert.Contains(t, model.lastUser, "Alice Smith")

	saved, ok := sessions.store[ans.SessionID]
	require.True(t, ok)
	require.Len(t, saved.Messages, 2)
	assert.Equal(t, RoleUser, saved.Messages[0].Role)
	assert.Equal(t, RoleAssistant, saved.Messages[1].Role)
	assert.Equal(t, model.reply, saved.Messages[1].Content)
}

func TestAsk_ExistingSessionAppends(t *testing.T) {
	docs := &stubDocs{}
	sessions := newFakeSessions()
	sessions.store["sess-1"] = Session{
		ID: "sess-1",
		Messages: []Message{
			{Role: RoleUser, Content: "hello"},
			{Role: RoleAssistant, Content: "hi"},
		},
	}
	svc := NewService(docs, sessions, &fakeModel{reply: "ok"}, testLogger())

	ans, err := svc.Ask(context.Background(), "sess-1", "next question")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", ans.SessionID)
	require.Len(t, sessions.store["sess-1"].Messages, 4)
}

func TestAsk_ModelFailureFallsBack(t *testing.T) {
	docs := &stubDocs{docs: []document.Document{candidateDoc("Alice Smith", 6, "Python")}}
	sessions := newFakeSessions()
	svc := NewService(docs, sessions, &fakeModel{err: errors.New("rate limited")}, testLogger())

	ans, err := svc.Ask(context.Background(), "", "Who knows Python?")
	require.NoError(t, err)
	assert.Equal(t, StatusFallback, ans.Status)
	assert.Contains(t, ans.Response, "Python")
	assert.Contains(t, ans.Response, "Alice Smith")
}

func TestAsk_NilModelFallsBack(t *testing.T) {
	docs := &stubDocs{docs: []document.Document{candidateDoc("Alice Smith", 6, "Python")}}
	svc := NewService(docs, newFakeSessions(), nil, testLogger())

	ans, err := svc.Ask(context.Background(), "", "anything at all")
	require.NoError(t, err)
	assert.Equal(t, StatusFallback, ans.Status)
	assert.NotEmpty(t, ans.Response)
}

func TestAsk_EmptyMessage(t *testing.T) {
	svc := NewService(&stubDocs{}, newFakeSessions(), nil, testLogger())

	_, err := svc.Ask(context.Background(), "", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAsk_SessionLoadFailure(t *testing.T) {
	sessions := newFakeSessions()
	sessions.getErr = errors.New("redis down")
	svc := NewService(&stubDocs{}, sessions, nil, testLogger())

	_, err := svc.Ask(context.Background(), "sess-1", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, sessions.getErr)
}

func TestAsk_UnknownSessionStartsFresh(t *testing.T) {
	sessions := newFakeSessions()
	svc := NewService(&stubDocs{}, sessions, nil, testLogger())

	ans, err := svc.Ask(context.Background(), "expired-id", "hello")
	require.NoError(t, err)
	assert.Equal(t, "expired-id", ans.SessionID)
	require.Len(t, sessions.store["expired-id"].Messages, 2)
}

func TestAsk_SaveFailureIsNonFatal(t *testing.T) {
	sessions := newFakeSessions()
	sessions.saveErr = errors.New("redis down")
	svc := NewService(&stubDocs{}, sessions, nil, testLogger())

	ans, err := svc.Ask(context.Background(), "", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, ans.Response)
}

func TestAsk_ListProcessedFailure(t *testing.T) {
	docs := &stubDocs{err: errors.New("db down")}
	svc := NewService(docs, newFakeSessions(), nil, testLogger())

	_, err := svc.Ask(context.Background(), "", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, docs.err)
}

func TestHistory(t *testing.T) {
	sessions := newFakeSessions()
	sessions.store["sess-1"] = Session{ID: "sess-1", Messages: []Message{{Role: RoleUser, Content: "hi"}}}
	svc := NewService(&stubDocs{}, sessions, nil, testLogger())

	sess, err := svc.History(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 1)

	_, err = svc.History(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.History(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFallback(t *testing.T) {
	docs := []document.Document{
		candidateDoc("Alice Smith", 6, "Python", "PostgreSQL"),
		candidateDoc("Bob Jones", 3, "React", "Javascript"),
	}

	t.Run("no candidates", func(t *testing.T) {
		got := Fallback("anything", nil)
		assert.Contains(t, got, "No processed resumes yet")
	})

	t.Run("skill question", func(t *testing.T) {
		got := Fallback("Who knows Python?", docs)
		assert.Contains(t, got, "Python")
		assert.Contains(t, got, "Alice Smith")
		assert.NotContains(t, got, "Bob Jones")
	})

	t.Run("skill synonym", func(t *testing.T) {
		got := Fallback("any postgres people?", docs)
		assert.Contains(t, got, "PostgreSQL")
		assert.Contains(t, got, "Alice Smith")
	})

	t.Run("count question", func(t *testing.T) {
		got := Fallback("How many resumes do we have?", docs)
		assert.Contains(t, got, "2 processed resumes")
	})

	t.Run("experience question", func(t *testing.T) {
		got := Fallback("Who is the most experienced?", docs)
		assert.Contains(t, got, "Alice Smith")
		assert.Contains(t, got, "6.0 years")
	})

	t.Run("default help", func(t *testing.T) {
		got := Fallback("tell me about the weather", docs)
		assert.Contains(t, got, "2 processed resumes")
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Fallback("Who knows Python?", docs), Fallback("Who knows Python?", docs))
	})
}
