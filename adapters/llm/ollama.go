package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yulawdev/vocalis/domain/entities"
	"github.com/yulawdev/vocalis/domain/repositories"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "gemma3:1b"
	defaultCallTimeout   = 30 * time.Second
	tagsTimeout          = 5 * time.Second
)

// OllamaConfig holds configuration for the local Ollama generator.
// Required fields: none, everything falls back to a default.
// Optional fields with defaults:
// - BaseURL: the Ollama server address (default: "http://localhost:11434")
// - Model: the model tag to request (default: "gemma3:1b")
// - CallTimeout: bounded wait per chat call (default: 30s)
type OllamaConfig struct {
	BaseURL     string
	Model       string
	CallTimeout time.Duration
}

// OllamaGenerator implements the Generator port against a local Ollama
// server. Construction negotiates model availability: the requested model is
// used when installed, otherwise the first installed model is substituted
// with a warning, and construction fails only when no model is installed.
type OllamaGenerator struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

var _ repositories.Generator = (*OllamaGenerator)(nil)

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewOllamaGenerator creates a generator bound to a local Ollama server and
// verifies it is reachable before the session starts.
func NewOllamaGenerator(cfg OllamaConfig, logger *zap.Logger) (*OllamaGenerator, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	timeout := cfg.CallTimeout
	if timeout == 0 {
		timeout = defaultCallTimeout
	}

	g := &OllamaGenerator{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
	if err := g.negotiateModel(); err != nil {
		return nil, err
	}
	return g, nil
}

// Model returns the effective model tag after negotiation.
func (g *OllamaGenerator) Model() string {
	return g.model
}

// negotiateModel queries the installed model tags and resolves the model this
// generator will use. Substituting a different installed model is a policy
// decision, not a failure, but it is always logged as a warning because a
// different model will be answering.
func (g *OllamaGenerator) negotiateModel() error {
	ctx, cancel := context.WithTimeout(context.Background(), tagsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to build tags request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: cannot connect to ollama at %s, make sure it is running: ollama serve",
			entities.ErrEngineUnreachable, g.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ollama tags endpoint returned status %d",
			entities.ErrEngineUnreachable, resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("%w: invalid tags response: %v", entities.ErrEngineUnreachable, err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	for _, name := range names {
		if name == g.model {
			g.logger.Info("using requested ollama model", zap.String("model", g.model))
			return nil
		}
	}

	if len(names) > 0 {
		g.logger.Warn("requested ollama model not installed, substituting first available",
			zap.String("requested", g.model),
			zap.Strings("available", names),
			zap.String("substitute", names[0]))
		g.model = names[0]
		return nil
	}

	return fmt.Errorf("%w: no ollama models installed, run: ollama pull llama3.2",
		entities.ErrEngineUnavailable)
}

// Complete sends the full message list to the chat endpoint and returns the
// reply content. The call carries a bounded wait; a timeout is treated
// identically to an unreachable backend.
func (g *OllamaGenerator) Complete(ctx context.Context, messages []entities.Message) (string, error) {
	payload := ollamaChatRequest{
		Model:    g.model,
		Messages: make([]ollamaMessage, 0, len(messages)),
		Stream:   false,
	}
	for _, m := range messages {
		payload.Messages = append(payload.Messages, ollamaMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: ollama not responding, is it running?", entities.ErrEngineUnreachable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: ollama chat returned status %d: %s",
			entities.ErrEngineUnreachable, resp.StatusCode, bytes.TrimSpace(detail))
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: invalid chat response: %v", entities.ErrEngineUnreachable, err)
	}

	return out.Message.Content, nil
}
