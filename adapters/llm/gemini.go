package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/yulawdev/vocalis/domain/entities"
	"github.com/yulawdev/vocalis/domain/repositories"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig holds configuration for the hosted Gemini generator.
// Required fields:
// - APIKey: a Gemini API key
// Optional fields with defaults:
// - Model: the model identifier (default: "gemini-2.0-flash")
// - CallTimeout: bounded wait per call (default: 30s)
type GeminiConfig struct {
	APIKey      string
	Model       string
	CallTimeout time.Duration
}

// GeminiGenerator implements the Generator port using Google's Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

var _ repositories.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a new Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: a Gemini API key is required", entities.ErrEngineUnavailable)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", entities.ErrEngineUnavailable, err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
		logger.Info("using default Gemini model", zap.String("model", model))
	}
	timeout := cfg.CallTimeout
	if timeout == 0 {
		timeout = defaultCallTimeout
	}

	return &GeminiGenerator{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Complete sends the message list to Gemini and returns the reply text.
// System and user messages map to the user role, assistant messages to the
// model role.
func (g *GeminiGenerator) Complete(ctx context.Context, messages []entities.Message) (string, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		var role genai.Role = genai.RoleUser
		if m.Role == entities.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: Gemini call failed: %v", entities.ErrEngineUnreachable, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: Gemini returned no candidates", entities.ErrEngineUnreachable)
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			reply.WriteString(part.Text)
		}
	}
	if reply.Len() == 0 {
		return "", fmt.Errorf("%w: Gemini returned an empty reply", entities.ErrEngineUnreachable)
	}

	return strings.TrimSpace(reply.String()), nil
}
