package entities

import "errors"

// Engine boundary failures. Every engine call made by the turn controller is
// converted into one of these before it reaches a caller, so sessions stay
// alive and retryable after anything short of a construction failure.
var (
	// ErrEngineUnavailable means an engine could not be constructed at all
	// (missing binary, missing API key, no installed models). Fatal to
	// session start; never raised mid-session.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrEngineUnreachable means the generation backend could not be
	// contacted, answered with a non-2xx status, or timed out.
	ErrEngineUnreachable = errors.New("engine unreachable")

	// ErrTranscriptionFailed means the speech-to-text engine could not
	// process a captured recording.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrSynthesisFailed means the text-to-speech engine could not render
	// the reply.
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// ErrEmptyTranscript means the recording transcribed to nothing
	// (silence or unintelligible audio). Recoverable; the user is asked to
	// speak again.
	ErrEmptyTranscript = errors.New("empty transcript")

	// ErrCaptureFailed means the audio input device failed to record.
	ErrCaptureFailed = errors.New("audio capture failed")

	// ErrPlaybackFailed means the audio output device failed to play.
	ErrPlaybackFailed = errors.New("audio playback failed")
)
