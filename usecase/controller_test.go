package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/yulawdev/vocalis/domain/entities"
)

// The fakes below write real temporary files so the tests can verify the
// controller's cleanup obligations.

type fakeRecorder struct {
	err   error
	files []string
}

func (r *fakeRecorder) Record(ctx context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	f, err := os.CreateTemp("", "capture-*.wav")
	if err != nil {
		return "", err
	}
	f.Close()
	r.files = append(r.files, f.Name())
	return f.Name(), nil
}

type fakeTranscriber struct {
	err   error
	texts []string
	calls int
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	t.calls++
	if t.err != nil {
		return "", t.err
	}
	if len(t.texts) > 0 {
		text := t.texts[0]
		t.texts = t.texts[1:]
		return text, nil
	}
	return "I'm Alex and I'm looking for work", nil
}

type fakeGenerator struct {
	failOn       int // 1-based call index that fails; 0 never fails
	err          error
	calls        int
	lastMessages []entities.Message
}

func (g *fakeGenerator) Complete(ctx context.Context, messages []entities.Message) (string, error) {
	g.calls++
	g.lastMessages = messages
	if g.failOn != 0 && g.calls >= g.failOn {
		return "", g.err
	}
	return fmt.Sprintf("assistant reply %d", g.calls), nil
}

type fakeSynthesizer struct {
	err   error
	files []string
}

func (s *fakeSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	f, err := os.CreateTemp("", "speech-*.wav")
	if err != nil {
		return "", err
	}
	f.Close()
	s.files = append(s.files, f.Name())
	return f.Name(), nil
}

type fakePlayer struct {
	err    error
	played []string
}

func (p *fakePlayer) Play(ctx context.Context, audioPath string) error {
	if p.err != nil {
		return p.err
	}
	p.played = append(p.played, audioPath)
	return nil
}

type fixture struct {
	recorder    *fakeRecorder
	transcriber *fakeTranscriber
	generator   *fakeGenerator
	synthesizer *fakeSynthesizer
	player      *fakePlayer
}

func newFixture() *fixture {
	return &fixture{
		recorder:    &fakeRecorder{},
		transcriber: &fakeTranscriber{},
		generator:   &fakeGenerator{},
		synthesizer: &fakeSynthesizer{},
		player:      &fakePlayer{},
	}
}

func (f *fixture) engines() Engines {
	return Engines{
		Transcriber: f.transcriber,
		Generator:   f.generator,
		Synthesizer: f.synthesizer,
		Recorder:    f.recorder,
		Player:      f.player,
	}
}

func (f *fixture) start(t *testing.T) *Controller {
	t.Helper()
	ctrl, err := StartSession(context.Background(), entities.EngineLocal,
		[]string{"name", "employment_status"}, "system prompt", f.engines(), zap.NewNop())
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	return ctrl
}

func assertRemoved(t *testing.T, paths []string) {
	t.Helper()
	for _, path := range paths {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected temporary file %s to be deleted", path)
			os.Remove(path)
		}
	}
}

func TestStartSessionOpeningExchange(t *testing.T) {
	f := newFixture()
	ctrl := f.start(t)

	session := ctrl.Session()
	if session.Status != entities.StatusReady {
		t.Errorf("Expected status ready after start, got %s", session.Status)
	}
	if session.TurnIndex != 0 {
		t.Errorf("Expected the opening exchange not to advance the turn index, got %d", session.TurnIndex)
	}
	if session.History.Len() != 2 {
		t.Fatalf("Expected 2 history entries after the opening exchange, got %d", session.History.Len())
	}

	snap := session.History.Snapshot()
	if snap[0].Role != entities.RoleUser || snap[0].Content != openingSeed {
		t.Errorf("Expected the seed instruction as first entry, got %+v", snap[0])
	}
	if snap[1].Role != entities.RoleAssistant {
		t.Errorf("Expected the assistant opening as second entry, got %+v", snap[1])
	}

	if f.generator.lastMessages[0].Role != entities.RoleSystem {
		t.Error("Expected the system prompt to lead the generation request")
	}
	if len(f.player.played) != 1 {
		t.Errorf("Expected the opening utterance to be played once, got %d", len(f.player.played))
	}
	assertRemoved(t, f.synthesizer.files)
}

func TestStartSessionAbortsOnGenerationFailure(t *testing.T) {
	f := newFixture()
	f.generator.failOn = 1
	f.generator.err = fmt.Errorf("%w: connection refused", entities.ErrEngineUnreachable)

	ctrl, err := StartSession(context.Background(), entities.EngineLocal,
		[]string{"name"}, "system prompt", f.engines(), zap.NewNop())
	if err == nil {
		t.Fatal("Expected StartSession to fail when the opening generation fails")
	}
	if ctrl != nil {
		t.Error("Expected no controller to be retained after a failed start")
	}
}

func TestCompletedSessionCountsTurns(t *testing.T) {
	f := newFixture()
	ctrl := f.start(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := ctrl.RunTurn(ctx); err != nil {
			t.Fatalf("Turn %d failed: %v", i, err)
		}
	}

	session := ctrl.Session()
	if session.TurnIndex != 2 {
		t.Errorf("Expected turn index 2 after two turns, got %d", session.TurnIndex)
	}
	if !session.Completed() {
		t.Error("Expected the session to be completed after both fields")
	}
	if session.Status != entities.StatusReady {
		t.Errorf("Expected status ready after a successful turn, got %s", session.Status)
	}

	if err := ctrl.RunTurn(ctx); err == nil {
		t.Error("Expected a turn after completion to be rejected")
	}

	assertRemoved(t, f.recorder.files)
	assertRemoved(t, f.synthesizer.files)
}

func TestEmptyTranscriptSkipsGeneration(t *testing.T) {
	f := newFixture()
	ctrl := f.start(t)
	f.transcriber.texts = []string{"   "}
	callsAfterStart := f.generator.calls

	err := ctrl.RunTurn(context.Background())
	if !errors.Is(err, entities.ErrEmptyTranscript) {
		t.Fatalf("Expected ErrEmptyTranscript, got %v", err)
	}

	session := ctrl.Session()
	if session.Status != entities.StatusError {
		t.Errorf("Expected status error, got %s", session.Status)
	}
	if session.TurnIndex != 0 {
		t.Errorf("Expected the turn index not to advance, got %d", session.TurnIndex)
	}
	if f.generator.calls != callsAfterStart {
		t.Error("Expected generation to be skipped for an empty transcript")
	}
	assertRemoved(t, f.recorder.files)

	if err := ctrl.Retry(); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if session.Status != entities.StatusReady {
		t.Errorf("Expected status ready after retry, got %s", session.Status)
	}
}

func TestGenerationFailureLeavesHistoryUntouched(t *testing.T) {
	f := newFixture()
	ctrl := f.start(t)
	before := ctrl.Session().History.Snapshot()

	// Second generator call is the first real turn; simulate a timeout.
	f.generator.failOn = 2
	f.generator.err = fmt.Errorf("%w: request timed out", entities.ErrEngineUnreachable)

	err := ctrl.RunTurn(context.Background())
	if !errors.Is(err, entities.ErrEngineUnreachable) {
		t.Fatalf("Expected ErrEngineUnreachable, got %v", err)
	}

	session := ctrl.Session()
	if session.Status != entities.StatusError {
		t.Errorf("Expected status error, got %s", session.Status)
	}
	if session.TurnIndex != 0 {
		t.Errorf("Expected the turn index not to advance, got %d", session.TurnIndex)
	}

	after := session.History.Snapshot()
	if len(after) != len(before) {
		t.Fatalf("Expected history untouched, length %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("History entry %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
	assertRemoved(t, f.recorder.files)

	if err := ctrl.Retry(); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if session.Status != entities.StatusReady {
		t.Errorf("Expected status ready after retry, got %s", session.Status)
	}
}

func TestSynthesisFailureCleansCapture(t *testing.T) {
	f := newFixture()
	ctrl := f.start(t)
	f.synthesizer.err = fmt.Errorf("%w: engine crashed", entities.ErrSynthesisFailed)

	err := ctrl.RunTurn(context.Background())
	if !errors.Is(err, entities.ErrSynthesisFailed) {
		t.Fatalf("Expected ErrSynthesisFailed, got %v", err)
	}
	if ctrl.Session().TurnIndex != 0 {
		t.Error("Expected the turn index not to advance")
	}
	assertRemoved(t, f.recorder.files)
}

func TestPlaybackFailureCleansBothArtifacts(t *testing.T) {
	f := newFixture()
	ctrl := f.start(t)
	f.player.err = fmt.Errorf("%w: device busy", entities.ErrPlaybackFailed)

	err := ctrl.RunTurn(context.Background())
	if !errors.Is(err, entities.ErrPlaybackFailed) {
		t.Fatalf("Expected ErrPlaybackFailed, got %v", err)
	}
	assertRemoved(t, f.recorder.files)
	assertRemoved(t, f.synthesizer.files)
}

func TestRunTurnRejectedUnlessReady(t *testing.T) {
	f := newFixture()
	ctrl := f.start(t)
	ctrl.Session().Status = entities.StatusGenerating

	if err := ctrl.RunTurn(context.Background()); err == nil {
		t.Error("Expected a turn to be rejected while another is in flight")
	}
}

func TestHistoryStaysBoundedOverManyTurns(t *testing.T) {
	f := newFixture()
	ctrl, err := StartSession(context.Background(), entities.EngineLocal,
		[]string{"a", "b", "c", "d", "e", "f", "g", "h"}, "system prompt", f.engines(), zap.NewNop())
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	for i := 0; i < 8; i++ {
		if err := ctrl.RunTurn(context.Background()); err != nil {
			t.Fatalf("Turn %d failed: %v", i, err)
		}
		if got := ctrl.Session().History.Len(); got > entities.MaxHistoryMessages {
			t.Fatalf("History exceeded %d messages after turn %d: %d",
				entities.MaxHistoryMessages, i, got)
		}
	}
	if ctrl.Session().TurnIndex != 8 {
		t.Errorf("Expected turn index 8, got %d", ctrl.Session().TurnIndex)
	}
}

func TestRunDrivesSessionToCompletion(t *testing.T) {
	f := newFixture()
	ctrl := f.start(t)
	// One silent attempt in the middle; Run must retry through it.
	f.transcriber.texts = []string{"Alex", "", "employed"}

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !ctrl.Session().Completed() {
		t.Error("Expected the session to complete")
	}
	if ctrl.Session().TurnIndex != 2 {
		t.Errorf("Expected turn index 2, got %d", ctrl.Session().TurnIndex)
	}
}
