package stt

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/yulawdev/vocalis/domain/entities"
	"github.com/yulawdev/vocalis/domain/repositories"
)

const defaultLanguageCode = "en-US"

// GoogleConfig holds configuration for the hosted transcriber.
type GoogleConfig struct {
	SampleRate int
	Language   string
}

// GoogleTranscriber implements the Transcriber port against Google Cloud
// Speech-to-Text. Recordings are short fixed-duration utterances, so the
// synchronous Recognize call is used rather than a streaming session.
type GoogleTranscriber struct {
	client     *speech.Client
	sampleRate int
	language   string
	logger     *zap.Logger
}

var _ repositories.Transcriber = (*GoogleTranscriber)(nil)

// NewGoogleTranscriber creates the Speech client. Credential or connection
// problems surface here, before the session starts.
func NewGoogleTranscriber(ctx context.Context, cfg GoogleConfig, logger *zap.Logger) (*GoogleTranscriber, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create speech client: %v", entities.ErrEngineUnavailable, err)
	}

	language := cfg.Language
	if language == "" {
		language = defaultLanguageCode
	}

	return &GoogleTranscriber{
		client:     client,
		sampleRate: cfg.SampleRate,
		language:   language,
		logger:     logger,
	}, nil
}

// Transcribe sends the captured WAV file for recognition and returns the
// recognized utterance. Silence recognizes to an empty string, which is a
// valid result and not an error.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("%w: cannot read recording %s: %v", entities.ErrTranscriptionFailed, audioPath, err)
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(g.sampleRate),
			LanguageCode:    g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", entities.ErrTranscriptionFailed, err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			transcript.WriteString(result.Alternatives[0].Transcript)
		}
	}

	text := strings.TrimSpace(transcript.String())
	g.logger.Info("transcription completed", zap.String("text", text))
	return text, nil
}

// Close releases the underlying gRPC connection.
func (g *GoogleTranscriber) Close() error {
	return g.client.Close()
}
