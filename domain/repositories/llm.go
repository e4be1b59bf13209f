package repositories

import (
	"context"

	"github.com/yulawdev/vocalis/domain/entities"
)

// Generator abstracts chat/LLM engines. Implementations are stateless with
// respect to the conversation: the caller owns the history and passes the
// full prompt (system prompt first, then the trimmed history ending with the
// new user message) on every call.
//
// Connectivity failures, non-2xx responses and call timeouts wrap
// entities.ErrEngineUnreachable. Local engines additionally negotiate model
// availability at construction time and fail with
// entities.ErrEngineUnavailable when no model is installed at all.
type Generator interface {
	Complete(ctx context.Context, messages []entities.Message) (string, error)
}
