package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yulawdev/vocalis/domain/entities"
	"github.com/yulawdev/vocalis/domain/repositories"
)

const (
	defaultEspeakBinary = "espeak-ng"
	defaultEspeakVoice  = "en"
	defaultEspeakSpeed  = 160 // words per minute
)

// EspeakConfig holds configuration for the offline synthesizer.
type EspeakConfig struct {
	Binary string
	Voice  string
	Speed  int
}

// EspeakSynthesizer implements the Synthesizer port with the espeak-ng CLI,
// keeping the whole local pipeline off the network.
type EspeakSynthesizer struct {
	binary string
	voice  string
	speed  int
	logger *zap.Logger
}

var _ repositories.Synthesizer = (*EspeakSynthesizer)(nil)

// NewEspeakSynthesizer verifies the binary exists so a missing installation
// fails session start rather than the first reply.
func NewEspeakSynthesizer(cfg EspeakConfig, logger *zap.Logger) (*EspeakSynthesizer, error) {
	binary := cfg.Binary
	if binary == "" {
		binary = defaultEspeakBinary
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %q not found in PATH", entities.ErrEngineUnavailable, binary)
	}

	voice := cfg.Voice
	if voice == "" {
		voice = defaultEspeakVoice
	}
	speed := cfg.Speed
	if speed == 0 {
		speed = defaultEspeakSpeed
	}

	return &EspeakSynthesizer{
		binary: path,
		voice:  voice,
		speed:  speed,
		logger: logger,
	}, nil
}

// Synthesize renders the text to a fresh temporary WAV file and returns its
// path.
func (e *EspeakSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("%w: text cannot be empty", entities.ErrSynthesisFailed)
	}

	speechPath := filepath.Join(os.TempDir(), "speech-"+uuid.NewString()+".wav")
	cmd := exec.CommandContext(ctx, e.binary,
		"-v", e.voice,
		"-s", strconv.Itoa(e.speed),
		"-w", speechPath,
		text,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(speechPath)
		return "", fmt.Errorf("%w: espeak failed: %v: %s",
			entities.ErrSynthesisFailed, err, strings.TrimSpace(stderr.String()))
	}

	e.logger.Info("speech synthesized", zap.String("path", speechPath))
	return speechPath, nil
}
