package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EngineKind selects which backend pipeline a session runs against.
type EngineKind string

const (
	EngineLocal EngineKind = "local"
	EngineCloud EngineKind = "cloud"
)

// SessionStatus is the state-machine variable of a session. A session moves
// ready -> recording -> transcribing -> generating -> speaking -> ready once
// per turn; any collaborator failure lands in error, from which an explicit
// retry returns to ready.
type SessionStatus string

const (
	StatusIdle         SessionStatus = "idle"
	StatusReady        SessionStatus = "ready"
	StatusRecording    SessionStatus = "recording"
	StatusTranscribing SessionStatus = "transcribing"
	StatusGenerating   SessionStatus = "generating"
	StatusSpeaking     SessionStatus = "speaking"
	StatusError        SessionStatus = "error"
)

// Session is one onboarding conversation from opening greeting to field-count
// completion. It owns its history exclusively; nothing is persisted beyond
// the session's lifetime.
type Session struct {
	ID        string
	Engine    EngineKind
	Fields    []string
	TurnIndex int
	Status    SessionStatus
	LastError string
	History   *History
	CreatedAt time.Time
}

// NewSession creates an idle session over the given ordered onboarding
// fields. The field count defines how many completed turns the session runs.
func NewSession(engine EngineKind, fields []string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Engine:    engine,
		Fields:    fields,
		TurnIndex: 0,
		Status:    StatusIdle,
		History:   NewHistory(),
		CreatedAt: time.Now(),
	}
}

// Completed reports whether every onboarding field has had its turn.
func (s *Session) Completed() bool {
	return s.TurnIndex >= len(s.Fields)
}

// Busy reports whether a turn is currently in flight. A new turn must be
// rejected while the session is busy so two turns never run against the same
// history.
func (s *Session) Busy() bool {
	switch s.Status {
	case StatusRecording, StatusTranscribing, StatusGenerating, StatusSpeaking:
		return true
	}
	return false
}

// Fail records a turn failure. The turn index and history keep whatever was
// durably established before the failed step.
func (s *Session) Fail(err error) {
	s.Status = StatusError
	s.LastError = err.Error()
}

// Retry clears the last error and returns the session to ready without
// altering the turn index or history.
func (s *Session) Retry() error {
	if s.Status != StatusError {
		return fmt.Errorf("retry is only valid from the error status, session is %s", s.Status)
	}
	s.Status = StatusReady
	s.LastError = ""
	return nil
}

// CompleteTurn marks one full turn as finished.
func (s *Session) CompleteTurn() {
	s.TurnIndex++
	s.Status = StatusReady
}

// Validate checks the session invariants that every mutation must preserve.
func (s *Session) Validate() error {
	if s.Engine != EngineLocal && s.Engine != EngineCloud {
		return errors.New("engine kind must be local or cloud")
	}
	if len(s.Fields) == 0 {
		return errors.New("at least one onboarding field is required")
	}
	if s.TurnIndex < 0 {
		return errors.New("turn index cannot be negative")
	}
	return nil
}
