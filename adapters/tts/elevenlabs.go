package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yulawdev/vocalis/domain/entities"
	"github.com/yulawdev/vocalis/domain/repositories"
)

const (
	defaultAPIBaseURL = "https://api.elevenlabs.io/v1"
	defaultVoiceID    = "21m00Tcm4TlvDq8ikWAM" // Rachel voice
	defaultModelID    = "eleven_multilingual_v2"
	defaultStability  = 0.5
	defaultClarity    = 0.75
	requestTimeout    = 60 * time.Second
)

// ElevenLabsConfig holds configuration for the hosted synthesizer.
// Required fields:
// - APIKey: an Eleven Labs API key
// Optional fields with defaults:
// - APIBaseURL: the API base URL (default: "https://api.elevenlabs.io/v1")
// - VoiceID: the voice to render with (default: Rachel)
// - ModelID: the TTS model (default: "eleven_multilingual_v2")
// - Stability, Clarity: voice settings in [0,1] (defaults: 0.5, 0.75)
type ElevenLabsConfig struct {
	APIKey     string
	APIBaseURL string
	VoiceID    string
	ModelID    string
	Stability  float64
	Clarity    float64
}

// ElevenLabsSynthesizer implements the Synthesizer port using the Eleven
// Labs API. Each call writes a fresh uniquely named MP3 artifact that the
// caller deletes after playback.
type ElevenLabsSynthesizer struct {
	apiKey     string
	apiBaseURL string
	voiceID    string
	modelID    string
	stability  float64
	clarity    float64
	client     *http.Client
	logger     *zap.Logger
}

var _ repositories.Synthesizer = (*ElevenLabsSynthesizer)(nil)

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

// NewElevenLabsSynthesizer creates a new Eleven Labs synthesizer.
func NewElevenLabsSynthesizer(cfg ElevenLabsConfig, logger *zap.Logger) (*ElevenLabsSynthesizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: an Eleven Labs API key is required", entities.ErrEngineUnavailable)
	}
	if cfg.Stability < 0 || cfg.Stability > 1 {
		return nil, fmt.Errorf("stability must be between 0 and 1, got %f", cfg.Stability)
	}
	if cfg.Clarity < 0 || cfg.Clarity > 1 {
		return nil, fmt.Errorf("clarity must be between 0 and 1, got %f", cfg.Clarity)
	}

	apiBaseURL := cfg.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	voiceID := cfg.VoiceID
	if voiceID == "" {
		voiceID = defaultVoiceID
	}
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}
	stability := cfg.Stability
	if stability == 0 {
		stability = defaultStability
	}
	clarity := cfg.Clarity
	if clarity == 0 {
		clarity = defaultClarity
	}

	return &ElevenLabsSynthesizer{
		apiKey:     cfg.APIKey,
		apiBaseURL: apiBaseURL,
		voiceID:    voiceID,
		modelID:    modelID,
		stability:  stability,
		clarity:    clarity,
		client:     &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}, nil
}

// Synthesize renders the text to a fresh temporary MP3 file and returns its
// path.
func (e *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("%w: text cannot be empty", entities.ErrSynthesisFailed)
	}

	body, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: e.modelID,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       e.stability,
			SimilarityBoost: e.clarity,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", e.apiBaseURL, e.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entities.ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: Eleven Labs returned status %d: %s",
			entities.ErrSynthesisFailed, resp.StatusCode, bytes.TrimSpace(detail))
	}

	speechPath := filepath.Join(os.TempDir(), "speech-"+uuid.NewString()+".mp3")
	out, err := os.Create(speechPath)
	if err != nil {
		return "", fmt.Errorf("%w: cannot create speech file: %v", entities.ErrSynthesisFailed, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(speechPath)
		return "", fmt.Errorf("%w: cannot write speech file: %v", entities.ErrSynthesisFailed, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(speechPath)
		return "", fmt.Errorf("%w: cannot write speech file: %v", entities.ErrSynthesisFailed, err)
	}

	e.logger.Info("speech synthesized",
		zap.String("voiceID", e.voiceID),
		zap.String("path", speechPath))
	return speechPath, nil
}
