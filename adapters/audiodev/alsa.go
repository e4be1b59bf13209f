// Package audiodev drives the default capture and playback devices through
// the ALSA command line tools. Both operations are blocking: a recording
// runs for its fixed duration, playback runs until the artifact ends.
package audiodev

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yulawdev/vocalis/domain/entities"
	"github.com/yulawdev/vocalis/domain/repositories"
)

const (
	defaultRecordBinary = "arecord"
	defaultWavPlayer    = "aplay"
	defaultMp3Player    = "mpg123"

	defaultRecordingDuration = 5 * time.Second
	defaultSampleRate        = 16000
)

// Config holds audio device configuration shared by the recorder and player.
type Config struct {
	RecordingDuration time.Duration
	SampleRate        int
}

// Recorder captures fixed-duration mono audio from the default input device
// into a fresh temporary WAV file.
type Recorder struct {
	binary     string
	duration   time.Duration
	sampleRate int
	logger     *zap.Logger
}

var _ repositories.Recorder = (*Recorder)(nil)

// NewRecorder verifies the capture tool is installed.
func NewRecorder(cfg Config, logger *zap.Logger) (*Recorder, error) {
	path, err := exec.LookPath(defaultRecordBinary)
	if err != nil {
		return nil, fmt.Errorf("%w: %q not found in PATH", entities.ErrEngineUnavailable, defaultRecordBinary)
	}

	duration := cfg.RecordingDuration
	if duration == 0 {
		duration = defaultRecordingDuration
	}
	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = defaultSampleRate
	}

	return &Recorder{
		binary:     path,
		duration:   duration,
		sampleRate: sampleRate,
		logger:     logger,
	}, nil
}

// Record blocks for the configured duration and returns the path of the
// captured WAV file.
func (r *Recorder) Record(ctx context.Context) (string, error) {
	capturePath := filepath.Join(os.TempDir(), "capture-"+uuid.NewString()+".wav")
	seconds := int(r.duration.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	r.logger.Info("recording, speak now",
		zap.Int("seconds", seconds),
		zap.Int("sampleRate", r.sampleRate))

	cmd := exec.CommandContext(ctx, r.binary,
		"-q",
		"-f", "S16_LE",
		"-c", "1",
		"-r", strconv.Itoa(r.sampleRate),
		"-d", strconv.Itoa(seconds),
		capturePath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(capturePath)
		return "", fmt.Errorf("%w: %v: %s",
			entities.ErrCaptureFailed, err, strings.TrimSpace(stderr.String()))
	}
	return capturePath, nil
}

// Player plays audio artifacts through the default output device, picking
// the playback tool by file extension (WAV from the recorder and espeak,
// MP3 from hosted synthesis).
type Player struct {
	wavBinary string
	mp3Binary string
	logger    *zap.Logger
}

var _ repositories.Player = (*Player)(nil)

// NewPlayer verifies the WAV playback tool is installed. The MP3 player is
// resolved lazily because the local pipeline never produces MP3.
func NewPlayer(logger *zap.Logger) (*Player, error) {
	wavPath, err := exec.LookPath(defaultWavPlayer)
	if err != nil {
		return nil, fmt.Errorf("%w: %q not found in PATH", entities.ErrEngineUnavailable, defaultWavPlayer)
	}
	return &Player{wavBinary: wavPath, logger: logger}, nil
}

// Play blocks until the artifact has finished playing.
func (p *Player) Play(ctx context.Context, audioPath string) error {
	var cmd *exec.Cmd
	switch strings.ToLower(filepath.Ext(audioPath)) {
	case ".mp3":
		if p.mp3Binary == "" {
			path, err := exec.LookPath(defaultMp3Player)
			if err != nil {
				return fmt.Errorf("%w: %q not found in PATH", entities.ErrPlaybackFailed, defaultMp3Player)
			}
			p.mp3Binary = path
		}
		cmd = exec.CommandContext(ctx, p.mp3Binary, "-q", audioPath)
	default:
		cmd = exec.CommandContext(ctx, p.wavBinary, "-q", audioPath)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v: %s",
			entities.ErrPlaybackFailed, err, strings.TrimSpace(stderr.String()))
	}
	p.logger.Debug("playback complete", zap.String("path", audioPath))
	return nil
}
