package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yulawdev/vocalis/domain/entities"
	"github.com/yulawdev/vocalis/domain/repositories"
)

// openingSeed is the fixed instruction that produces the opening utterance.
// It is sent through the generator like any user message but does not consume
// an onboarding field.
const openingSeed = "Begin the onboarding conversation"

// retryBackoff is the pause between automatic retries in the CLI loop.
const retryBackoff = 2 * time.Second

// Engines bundles the five collaborator ports a session runs against. One
// concrete set exists per backend (local or cloud); the controller never
// knows which it holds.
type Engines struct {
	Transcriber repositories.Transcriber
	Generator   repositories.Generator
	Synthesizer repositories.Synthesizer
	Recorder    repositories.Recorder
	Player      repositories.Player
}

func (e Engines) validate() error {
	if e.Transcriber == nil || e.Generator == nil || e.Synthesizer == nil ||
		e.Recorder == nil || e.Player == nil {
		return errors.New("all five engine ports are required")
	}
	return nil
}

// Controller drives one onboarding session: the opening exchange, the
// per-field turn loop and the error/retry transitions. Every step is
// sequential and blocking; the controller must not be entered concurrently.
type Controller struct {
	engines      Engines
	session      *entities.Session
	systemPrompt string
	logger       *zap.Logger
}

// StartSession runs the session-start protocol: validate the engine set,
// generate and speak the opening utterance, and hand back a ready session.
// Any failure aborts the start entirely and no session object is retained.
func StartSession(
	ctx context.Context,
	engine entities.EngineKind,
	fields []string,
	systemPrompt string,
	engines Engines,
	logger *zap.Logger,
) (*Controller, error) {
	if err := engines.validate(); err != nil {
		return nil, err
	}

	session := entities.NewSession(engine, fields)
	if err := session.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		engines:      engines,
		session:      session,
		systemPrompt: systemPrompt,
		logger:       logger,
	}

	opening, err := c.exchange(ctx, openingSeed)
	if err != nil {
		return nil, fmt.Errorf("session start: %w", err)
	}

	speechPath, err := engines.Synthesizer.Synthesize(ctx, opening)
	if err != nil {
		return nil, fmt.Errorf("session start: %w", err)
	}
	playErr := engines.Player.Play(ctx, speechPath)
	c.removeArtifact(speechPath)
	if playErr != nil {
		return nil, fmt.Errorf("session start: %w", playErr)
	}

	session.Status = entities.StatusReady
	logger.Info("session started",
		zap.String("sessionID", session.ID),
		zap.String("engine", string(engine)),
		zap.Strings("fields", fields))

	return c, nil
}

// Session exposes the session for status inspection and display.
func (c *Controller) Session() *entities.Session {
	return c.session
}

// RunTurn executes one full capture -> transcribe -> generate -> synthesize
// -> play cycle. On success the turn index advances and the session returns
// to ready; on any collaborator failure the session lands in error with the
// turn index and history untouched beyond what was durably appended.
func (c *Controller) RunTurn(ctx context.Context) error {
	s := c.session
	if s.Completed() {
		return fmt.Errorf("session %s has already completed all %d turns", s.ID, len(s.Fields))
	}
	if s.Status != entities.StatusReady {
		return fmt.Errorf("cannot start a turn while session is %s", s.Status)
	}

	s.Status = entities.StatusRecording
	capturePath, err := c.engines.Recorder.Record(ctx)
	if err != nil {
		return c.fail(err)
	}

	s.Status = entities.StatusTranscribing
	transcript, err := c.engines.Transcriber.Transcribe(ctx, capturePath)
	if err != nil {
		c.removeArtifact(capturePath)
		return c.fail(err)
	}
	if strings.TrimSpace(transcript) == "" {
		c.removeArtifact(capturePath)
		return c.fail(fmt.Errorf("%w: nothing was heard, please try speaking again", entities.ErrEmptyTranscript))
	}
	c.logger.Info("transcript received",
		zap.String("sessionID", s.ID),
		zap.String("text", transcript))

	s.Status = entities.StatusGenerating
	reply, err := c.exchange(ctx, transcript)
	if err != nil {
		c.removeArtifact(capturePath)
		return c.fail(err)
	}

	s.Status = entities.StatusSpeaking
	speechPath, err := c.engines.Synthesizer.Synthesize(ctx, reply)
	if err != nil {
		c.removeArtifact(capturePath)
		return c.fail(err)
	}
	if err := c.engines.Player.Play(ctx, speechPath); err != nil {
		c.removeArtifact(capturePath)
		c.removeArtifact(speechPath)
		return c.fail(err)
	}

	c.removeArtifact(capturePath)
	c.removeArtifact(speechPath)
	s.CompleteTurn()
	c.logger.Info("turn completed",
		zap.String("sessionID", s.ID),
		zap.Int("turnIndex", s.TurnIndex),
		zap.Int("totalTurns", len(s.Fields)))
	return nil
}

// Retry returns an errored session to ready, keeping the turn index and the
// history accumulated before the failed step.
func (c *Controller) Retry() error {
	return c.session.Retry()
}

// Run drives the whole session to completion, retrying failed turns until
// the context is cancelled. This is the CLI entry; the dashboard calls
// RunTurn and Retry one user action at a time instead.
func (c *Controller) Run(ctx context.Context) error {
	for !c.session.Completed() {
		if err := c.RunTurn(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if rerr := c.Retry(); rerr != nil {
				return rerr
			}
			if errors.Is(err, entities.ErrEmptyTranscript) {
				continue
			}
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	c.logger.Info("onboarding session completed",
		zap.String("sessionID", c.session.ID),
		zap.Int("turns", c.session.TurnIndex))
	return nil
}

// exchange sends the system prompt, the trimmed history and the new user
// message to the generator. The user/assistant pair is appended to history
// only once the reply is obtained, so a failed call never leaves an orphan
// user entry.
func (c *Controller) exchange(ctx context.Context, userText string) (string, error) {
	history := c.session.History.Snapshot()
	messages := make([]entities.Message, 0, len(history)+2)
	messages = append(messages, entities.Message{Role: entities.RoleSystem, Content: c.systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, entities.Message{Role: entities.RoleUser, Content: userText})

	reply, err := c.engines.Generator.Complete(ctx, messages)
	if err != nil {
		return "", err
	}

	c.session.History.AppendUser(userText)
	c.session.History.AppendAssistant(reply)
	return reply, nil
}

func (c *Controller) fail(err error) error {
	c.session.Fail(err)
	c.logger.Error("turn failed",
		zap.String("sessionID", c.session.ID),
		zap.Int("turnIndex", c.session.TurnIndex),
		zap.Error(err))
	return err
}

// removeArtifact deletes a temporary audio file. Deletion failures are
// logged and never surfaced.
func (c *Controller) removeArtifact(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil {
		c.logger.Warn("could not delete temporary audio file",
			zap.String("path", path),
			zap.Error(err))
		return
	}
	c.logger.Debug("removed temporary audio file", zap.String("path", path))
}
