package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yulawdev/vocalis/domain/entities"
)

func ollamaServer(t *testing.T, installed []string, reply string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		type model struct {
			Name string `json:"name"`
		}
		models := make([]model, 0, len(installed))
		for _, name := range installed {
			models = append(models, model{Name: name})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"models": models})
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Invalid chat request: %v", err)
		}
		if req.Stream {
			t.Error("Expected a non-streaming chat request")
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: reply},
		})
	})
	return httptest.NewServer(mux)
}

func TestOllamaUsesRequestedModelWhenInstalled(t *testing.T) {
	server := ollamaServer(t, []string{"gemma3:1b", "llama3.2"}, "hi")
	defer server.Close()

	g, err := NewOllamaGenerator(OllamaConfig{BaseURL: server.URL, Model: "gemma3:1b"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOllamaGenerator failed: %v", err)
	}
	if g.Model() != "gemma3:1b" {
		t.Errorf("Expected the requested model to be kept, got %s", g.Model())
	}
}

func TestOllamaSubstitutesFirstAvailableModel(t *testing.T) {
	server := ollamaServer(t, []string{"llama3.2"}, "hi")
	defer server.Close()

	core, logs := observer.New(zap.WarnLevel)
	g, err := NewOllamaGenerator(OllamaConfig{BaseURL: server.URL, Model: "gemma3:1b"}, zap.New(core))
	if err != nil {
		t.Fatalf("Expected substitution to succeed, got %v", err)
	}
	if g.Model() != "llama3.2" {
		t.Errorf("Expected the first installed model to be substituted, got %s", g.Model())
	}
	if logs.Len() == 0 {
		t.Error("Expected the substitution to be logged as a warning")
	}
}

func TestOllamaFailsWithNoModelsInstalled(t *testing.T) {
	server := ollamaServer(t, nil, "hi")
	defer server.Close()

	_, err := NewOllamaGenerator(OllamaConfig{BaseURL: server.URL, Model: "gemma3:1b"}, zap.NewNop())
	if !errors.Is(err, entities.ErrEngineUnavailable) {
		t.Fatalf("Expected ErrEngineUnavailable, got %v", err)
	}
}

func TestOllamaUnreachableAtConstruction(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewOllamaGenerator(OllamaConfig{BaseURL: url, Model: "gemma3:1b"}, zap.NewNop())
	if !errors.Is(err, entities.ErrEngineUnreachable) {
		t.Fatalf("Expected ErrEngineUnreachable, got %v", err)
	}
}

func TestOllamaComplete(t *testing.T) {
	server := ollamaServer(t, []string{"gemma3:1b"}, "Nice to meet you, Alex!")
	defer server.Close()

	g, err := NewOllamaGenerator(OllamaConfig{BaseURL: server.URL, Model: "gemma3:1b"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOllamaGenerator failed: %v", err)
	}

	reply, err := g.Complete(context.Background(), []entities.Message{
		{Role: entities.RoleSystem, Content: "be friendly"},
		{Role: entities.RoleUser, Content: "My name is Alex"},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply != "Nice to meet you, Alex!" {
		t.Errorf("Unexpected reply %q", reply)
	}
}

func TestOllamaCompleteServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []map[string]string{{"name": "gemma3:1b"}},
		})
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	g, err := NewOllamaGenerator(OllamaConfig{BaseURL: server.URL, Model: "gemma3:1b"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOllamaGenerator failed: %v", err)
	}

	_, err = g.Complete(context.Background(), []entities.Message{{Role: entities.RoleUser, Content: "hi"}})
	if !errors.Is(err, entities.ErrEngineUnreachable) {
		t.Fatalf("Expected ErrEngineUnreachable, got %v", err)
	}
}

func TestOllamaCompleteTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []map[string]string{{"name": "gemma3:1b"}},
		})
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	g, err := NewOllamaGenerator(OllamaConfig{
		BaseURL:     server.URL,
		Model:       "gemma3:1b",
		CallTimeout: 50 * time.Millisecond,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOllamaGenerator failed: %v", err)
	}

	_, err = g.Complete(context.Background(), []entities.Message{{Role: entities.RoleUser, Content: "hi"}})
	if !errors.Is(err, entities.ErrEngineUnreachable) {
		t.Fatalf("Expected a timeout to map to ErrEngineUnreachable, got %v", err)
	}
}
