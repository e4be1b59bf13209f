package repositories

import "context"

// Recorder abstracts the audio input device. Record blocks for the
// configured recording duration and persists the captured mono audio to a
// fresh temporary file, returning its path. Failures wrap
// entities.ErrCaptureFailed.
type Recorder interface {
	Record(ctx context.Context) (string, error)
}

// Player abstracts the audio output device. Play blocks until the artifact
// has finished playing. Failures wrap entities.ErrPlaybackFailed.
type Player interface {
	Play(ctx context.Context, audioPath string) error
}
