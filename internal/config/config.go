// Package config reads the agent configuration from environment variables.
// Everything is read once at startup and immutable for a session's lifetime.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yulawdev/vocalis/domain/entities"
)

// DefaultOnboardingFields is the ordered list of fields collected during
// onboarding. Its length defines the number of turns in a session.
var DefaultOnboardingFields = []string{"name", "employment_status"}

// Config is the full configuration surface of the agent and dashboard.
type Config struct {
	EngineKind        entities.EngineKind
	OnboardingFields  []string
	SystemPrompt      string
	RecordingDuration time.Duration
	SampleRate        int

	// Local pipeline
	WhisperBinary    string
	WhisperModelPath string
	WhisperLanguage  string
	OllamaURL        string
	OllamaModel      string
	EspeakVoice      string

	// Cloud pipeline
	GeminiAPIKey      string
	GeminiModel       string
	SpeechLanguage    string
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string

	// Dashboard
	Port               string
	DashboardJWTSecret string
}

// Load builds the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		EngineKind:        entities.EngineKind(getEnv("ENGINE_KIND", string(entities.EngineLocal))),
		OnboardingFields:  parseFields(os.Getenv("ONBOARDING_FIELDS")),
		RecordingDuration: 5 * time.Second,
		SampleRate:        16000,

		WhisperBinary:    os.Getenv("WHISPER_BINARY"),
		WhisperModelPath: os.Getenv("WHISPER_MODEL_PATH"),
		WhisperLanguage:  getEnv("WHISPER_LANGUAGE", "en"),
		OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:      getEnv("OLLAMA_MODEL", "gemma3:1b"),
		EspeakVoice:      getEnv("ESPEAK_VOICE", "en"),

		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		SpeechLanguage:    getEnv("SPEECH_LANGUAGE", "en-US"),
		ElevenLabsAPIKey:  os.Getenv("ELEVEN_LABS_API_KEY"),
		ElevenLabsVoiceID: os.Getenv("ELEVEN_LABS_VOICE_ID"),

		Port:               getEnv("PORT", "8080"),
		DashboardJWTSecret: os.Getenv("DASHBOARD_JWT_SECRET"),
	}

	if cfg.EngineKind != entities.EngineLocal && cfg.EngineKind != entities.EngineCloud {
		return nil, fmt.Errorf("ENGINE_KIND must be %q or %q, got %q",
			entities.EngineLocal, entities.EngineCloud, cfg.EngineKind)
	}

	if v := os.Getenv("RECORDING_DURATION_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds < 1 {
			return nil, fmt.Errorf("RECORDING_DURATION_SECONDS must be a positive integer, got %q", v)
		}
		cfg.RecordingDuration = time.Duration(seconds) * time.Second
	}

	if v := os.Getenv("SAMPLE_RATE"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate < 8000 || rate > 48000 {
			return nil, fmt.Errorf("SAMPLE_RATE must be between 8000 and 48000, got %q", v)
		}
		cfg.SampleRate = rate
	}

	cfg.SystemPrompt = os.Getenv("SYSTEM_PROMPT")
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt(cfg.OnboardingFields)
	}

	return cfg, nil
}

// DefaultSystemPrompt builds the pinned system prompt guiding the assistant
// through the onboarding fields.
func DefaultSystemPrompt(fields []string) string {
	return fmt.Sprintf(`You are a friendly voice assistant helping users find jobs.
Collect the following information through natural conversation: %s.
Ask one question at a time. Acknowledge each answer warmly before moving on.
Once all fields are collected, confirm the details back to the user.`,
		strings.Join(fields, ", "))
}

func parseFields(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return append([]string(nil), DefaultOnboardingFields...)
	}
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return append([]string(nil), DefaultOnboardingFields...)
	}
	return fields
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
