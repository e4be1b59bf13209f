package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/yulawdev/vocalis/domain/entities"
	"github.com/yulawdev/vocalis/domain/repositories"
)

const defaultWhisperBinary = "whisper-cli"

// WhisperConfig holds configuration for the on-device transcriber.
// Required fields:
// - ModelPath: path to a whisper.cpp ggml model file
// Optional fields with defaults:
// - Binary: the whisper.cpp CLI binary (default: "whisper-cli")
// - Language: recognition language (default: "en")
type WhisperConfig struct {
	Binary    string
	ModelPath string
	Language  string
}

// WhisperTranscriber implements the Transcriber port with a local
// whisper.cpp CLI invocation. All processing stays on-device.
type WhisperTranscriber struct {
	binary    string
	modelPath string
	language  string
	logger    *zap.Logger
}

var _ repositories.Transcriber = (*WhisperTranscriber)(nil)

// NewWhisperTranscriber verifies the binary and model are present so a
// missing installation fails session start instead of the first turn.
func NewWhisperTranscriber(cfg WhisperConfig, logger *zap.Logger) (*WhisperTranscriber, error) {
	binary := cfg.Binary
	if binary == "" {
		binary = defaultWhisperBinary
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: whisper.cpp binary %q not found in PATH", entities.ErrEngineUnavailable, binary)
	}

	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("%w: a whisper model path is required", entities.ErrEngineUnavailable)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: whisper model not found: %s", entities.ErrEngineUnavailable, cfg.ModelPath)
	}

	language := cfg.Language
	if language == "" {
		language = "en"
	}

	logger.Info("loaded whisper.cpp transcriber",
		zap.String("binary", path),
		zap.String("model", cfg.ModelPath))

	return &WhisperTranscriber{
		binary:    path,
		modelPath: cfg.ModelPath,
		language:  language,
		logger:    logger,
	}, nil
}

// Transcribe runs the whisper.cpp CLI on the recording and returns its
// stdout stripped of timestamps and surrounding whitespace.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	cmd := exec.CommandContext(ctx, w.binary,
		"-m", w.modelPath,
		"-f", audioPath,
		"-l", w.language,
		"--no-timestamps",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: whisper.cpp failed: %v: %s",
			entities.ErrTranscriptionFailed, err, strings.TrimSpace(stderr.String()))
	}

	text := CleanTranscript(stdout.String())
	w.logger.Info("transcription completed", zap.String("text", text))
	return text, nil
}

// CleanTranscript collapses whisper.cpp CLI output into a single trimmed
// line. The CLI emits one line per segment plus blank separator lines.
func CleanTranscript(raw string) string {
	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
