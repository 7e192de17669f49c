package perception

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "PROCEED. Looks fine."},
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3")
	out, err := c.CompleteWithSystem(context.Background(), "be brief", "what next?")
	require.NoError(t, err)
	assert.Equal(t, "PROCEED. Looks fine.", out)
}

func TestOllamaComplete_NoModel(t *testing.T) {
	c := NewOllamaClient("http://localhost:11434", "")
	_, err := c.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestOllamaComplete_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3")
	_, err := c.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestOllamaListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[{"name":"llama3:8b"},{"name":"mistral:7b"},{"name":""}]}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "")
	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:8b", "mistral:7b"}, models)
}

func TestOpenAIComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"STOP. Check the BIOS."}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test", "gpt-4o-mini")
	out, err := c.Complete(context.Background(), "what next?")
	require.NoError(t, err)
	assert.Equal(t, "STOP. Check the BIOS.", out)
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(configWithProvider("watson"))
	assert.Error(t, err)
}

func TestNewClient_DefaultsToOllama(t *testing.T) {
	c, err := NewClient(configWithProvider(""))
	require.NoError(t, err)
	_, ok := c.(*OllamaClient)
	assert.True(t, ok)
}
