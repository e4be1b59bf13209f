package entities

import (
	"errors"
	"testing"
)

func TestSessionCreation(t *testing.T) {
	fields := []string{"name", "employment_status"}
	session := NewSession(EngineLocal, fields)

	if session.ID == "" {
		t.Error("Expected a session ID to be assigned")
	}
	if session.Status != StatusIdle {
		t.Errorf("Expected status %s, got %s", StatusIdle, session.Status)
	}
	if session.TurnIndex != 0 {
		t.Errorf("Expected turn index 0, got %d", session.TurnIndex)
	}
	if session.History.Len() != 0 {
		t.Errorf("Expected empty history, got %d messages", session.History.Len())
	}
	if err := session.Validate(); err != nil {
		t.Errorf("Expected a fresh session to validate, got %v", err)
	}
}

func TestSessionValidation(t *testing.T) {
	if err := NewSession("weird", []string{"name"}).Validate(); err == nil {
		t.Error("Expected validation to reject an unknown engine kind")
	}
	if err := NewSession(EngineCloud, nil).Validate(); err == nil {
		t.Error("Expected validation to reject an empty field list")
	}
}

func TestSessionCompletion(t *testing.T) {
	session := NewSession(EngineLocal, []string{"name", "employment_status"})
	session.Status = StatusReady

	if session.Completed() {
		t.Error("Session should not be completed before any turn")
	}
	session.CompleteTurn()
	if session.Completed() {
		t.Error("Session should not be completed after one of two turns")
	}
	session.CompleteTurn()
	if !session.Completed() {
		t.Error("Session should be completed after two of two turns")
	}
	if session.TurnIndex != 2 {
		t.Errorf("Expected turn index 2, got %d", session.TurnIndex)
	}
}

func TestSessionFailAndRetry(t *testing.T) {
	session := NewSession(EngineLocal, []string{"name"})
	session.Status = StatusGenerating
	session.History.AppendUser("hi")
	session.History.AppendAssistant("hello")

	session.Fail(errors.New("engine unreachable"))
	if session.Status != StatusError {
		t.Fatalf("Expected status %s, got %s", StatusError, session.Status)
	}
	if session.LastError == "" {
		t.Error("Expected last error to be recorded")
	}

	if err := session.Retry(); err != nil {
		t.Fatalf("Expected retry from error to succeed, got %v", err)
	}
	if session.Status != StatusReady {
		t.Errorf("Expected status %s after retry, got %s", StatusReady, session.Status)
	}
	if session.LastError != "" {
		t.Error("Expected retry to clear the last error")
	}
	if session.TurnIndex != 0 {
		t.Errorf("Expected retry to preserve the turn index, got %d", session.TurnIndex)
	}
	if session.History.Len() != 2 {
		t.Errorf("Expected retry to preserve the history, got %d messages", session.History.Len())
	}
}

func TestSessionRetryOnlyFromError(t *testing.T) {
	session := NewSession(EngineLocal, []string{"name"})
	session.Status = StatusReady
	if err := session.Retry(); err == nil {
		t.Error("Expected retry from ready to be rejected")
	}
}

func TestSessionBusy(t *testing.T) {
	session := NewSession(EngineLocal, []string{"name"})
	for _, status := range []SessionStatus{StatusRecording, StatusTranscribing, StatusGenerating, StatusSpeaking} {
		session.Status = status
		if !session.Busy() {
			t.Errorf("Expected session to be busy while %s", status)
		}
	}
	for _, status := range []SessionStatus{StatusIdle, StatusReady, StatusError} {
		session.Status = status
		if session.Busy() {
			t.Errorf("Expected session not to be busy while %s", status)
		}
	}
}
