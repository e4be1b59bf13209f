// Package bootstrap wires concrete engine adapters into the port set the
// turn controller runs against.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yulawdev/vocalis/adapters/audiodev"
	"github.com/yulawdev/vocalis/adapters/llm"
	"github.com/yulawdev/vocalis/adapters/stt"
	"github.com/yulawdev/vocalis/adapters/tts"
	"github.com/yulawdev/vocalis/domain/entities"
	"github.com/yulawdev/vocalis/internal/config"
	"github.com/yulawdev/vocalis/usecase"
)

// BuildEngines constructs and verifies the full engine set for the chosen
// backend. Any constructor failure aborts session start; no partially built
// set is returned.
func BuildEngines(ctx context.Context, cfg *config.Config, kind entities.EngineKind, logger *zap.Logger) (usecase.Engines, error) {
	recorder, err := audiodev.NewRecorder(audiodev.Config{
		RecordingDuration: cfg.RecordingDuration,
		SampleRate:        cfg.SampleRate,
	}, logger)
	if err != nil {
		return usecase.Engines{}, err
	}
	player, err := audiodev.NewPlayer(logger)
	if err != nil {
		return usecase.Engines{}, err
	}

	switch kind {
	case entities.EngineLocal:
		transcriber, err := stt.NewWhisperTranscriber(stt.WhisperConfig{
			Binary:    cfg.WhisperBinary,
			ModelPath: cfg.WhisperModelPath,
			Language:  cfg.WhisperLanguage,
		}, logger)
		if err != nil {
			return usecase.Engines{}, err
		}
		generator, err := llm.NewOllamaGenerator(llm.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
		}, logger)
		if err != nil {
			return usecase.Engines{}, err
		}
		synthesizer, err := tts.NewEspeakSynthesizer(tts.EspeakConfig{
			Voice: cfg.EspeakVoice,
		}, logger)
		if err != nil {
			return usecase.Engines{}, err
		}
		return usecase.Engines{
			Transcriber: transcriber,
			Generator:   generator,
			Synthesizer: synthesizer,
			Recorder:    recorder,
			Player:      player,
		}, nil

	case entities.EngineCloud:
		transcriber, err := stt.NewGoogleTranscriber(ctx, stt.GoogleConfig{
			SampleRate: cfg.SampleRate,
			Language:   cfg.SpeechLanguage,
		}, logger)
		if err != nil {
			return usecase.Engines{}, err
		}
		generator, err := llm.NewGeminiGenerator(ctx, llm.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		}, logger)
		if err != nil {
			return usecase.Engines{}, err
		}
		synthesizer, err := tts.NewElevenLabsSynthesizer(tts.ElevenLabsConfig{
			APIKey:  cfg.ElevenLabsAPIKey,
			VoiceID: cfg.ElevenLabsVoiceID,
		}, logger)
		if err != nil {
			return usecase.Engines{}, err
		}
		return usecase.Engines{
			Transcriber: transcriber,
			Generator:   generator,
			Synthesizer: synthesizer,
			Recorder:    recorder,
			Player:      player,
		}, nil
	}

	return usecase.Engines{}, fmt.Errorf("unknown engine kind %q", kind)
}
