package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4-turbo-preview", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		resp := chatCompletionsResponse{}
		resp.Choices = []chatChoice{{Index: 0}}
		resp.Choices[0].Message.Content = "two candidates match"
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := New("test-key", srv.URL, "", "")
	reply, err := client.Ask(context.Background(), "be helpful", "who knows go?")
	require.NoError(t, err)
	assert.Equal(t, "two candidates match", reply)
}

func TestAsk_EmptyKey(t *testing.T) {
	client := New("", "http://127.0.0.1:0", "", "")
	_, err := client.Ask(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestAsk_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	client := New("test-key", srv.URL, "", "")
	_, err := client.Ask(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai http 429")
}

func TestAsk_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := New("test-key", srv.URL, "", "")
	_, err := client.Ask(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestEmbed_RestoresOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-large", req.Model)
		assert.Equal(t, []string{"first chunk", "second chunk"}, req.Input)

		// данные нарочно в обратном порядке — клиент обязан восстановить его по index
		_, _ = w.Write([]byte(`{"data":[
			{"index":1,"embedding":[3]},
			{"index":0,"embedding":[1,2]}
		]}`))
	}))
	defer srv.Close()

	client := New("test-key", srv.URL, "", "")
	vectors, err := client.Embed(context.Background(), []string{"first chunk", "second chunk"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 2}, vectors[0])
	assert.Equal(t, []float32{3}, vectors[1])
}

func TestEmbed_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	}))
	defer srv.Close()

	client := New("test-key", srv.URL, "", "")
	_, err := client.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestEmbed_NoInput(t *testing.T) {
	client := New("test-key", "http://127.0.0.1:0", "", "")
	vectors, err := client.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}
