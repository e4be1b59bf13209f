package repositories

import "context"

// Transcriber abstracts speech recognition engines, local or hosted.
type Transcriber interface {
	// Transcribe converts a previously captured mono audio file to text
	// with surrounding whitespace removed. An empty result is a valid
	// outcome (silence), not an engine error; engine failures wrap
	// entities.ErrTranscriptionFailed.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
