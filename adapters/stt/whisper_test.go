package stt

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/yulawdev/vocalis/domain/entities"
)

func TestCleanTranscript(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"single line", " Hello there. \n", "Hello there."},
		{"multi segment", " My name is Alex.\n\n I am looking for work.\n", "My name is Alex. I am looking for work."},
		{"silence", "\n  \n", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanTranscript(tc.raw); got != tc.want {
				t.Errorf("CleanTranscript(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestWhisperMissingBinary(t *testing.T) {
	_, err := NewWhisperTranscriber(WhisperConfig{
		Binary:    "definitely-not-a-real-whisper-binary",
		ModelPath: "model.bin",
	}, zap.NewNop())
	if !errors.Is(err, entities.ErrEngineUnavailable) {
		t.Fatalf("Expected ErrEngineUnavailable for a missing binary, got %v", err)
	}
}

func TestWhisperMissingModel(t *testing.T) {
	_, err := NewWhisperTranscriber(WhisperConfig{
		Binary:    "sh", // always present; the model check must fail first
		ModelPath: "/nonexistent/ggml-base.bin",
	}, zap.NewNop())
	if !errors.Is(err, entities.ErrEngineUnavailable) {
		t.Fatalf("Expected ErrEngineUnavailable for a missing model, got %v", err)
	}
}
