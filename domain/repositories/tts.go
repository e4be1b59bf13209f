package repositories

import "context"

// Synthesizer abstracts text-to-speech engines. Synthesize renders the text
// into a freshly named temporary audio artifact and returns its path; it
// never reuses or overwrites a prior artifact. The caller deletes the file
// after playback. Failures wrap entities.ErrSynthesisFailed.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}
