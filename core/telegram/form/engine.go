package form

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/promobot/core/logger"
)

// DefaultTimeout is the session age after which Expire reaps a session.
const DefaultTimeout = 15 * time.Minute

// Options configures an Engine.
type Options struct {
	// Timeout caps session age; zero or negative selects DefaultTimeout.
	Timeout time.Duration
	// Clock overrides time.Now, used by tests.
	Clock func() time.Time
}

type session struct {
	def       Definition
	step      int
	values    *Values
	createdAt time.Time
}

// Engine owns the session table. Every table mutation happens under one lock;
// completions run outside it so they may block on I/O.
type Engine struct {
	mu       sync.Mutex
	sessions map[Key]*session
	timeout  time.Duration
	now      func() time.Time
}

// NewEngine constructs an Engine with the given options.
func NewEngine(opts Options) *Engine {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{
		sessions: make(map[Key]*session),
		timeout:  opts.Timeout,
		now:      opts.Clock,
	}
}

// Timeout returns the configured session age limit.
func (e *Engine) Timeout() time.Duration { return e.timeout }

// Start begins a session for key and returns the first field's prompt. An
// existing session under the same key is replaced; its collected values are
// dropped and its completion never runs.
func (e *Engine) Start(ctx context.Context, key Key, def Definition) (Prompt, error) {
	if len(def.Fields) == 0 {
		return Prompt{}, ErrNoFields
	}
	if def.OnComplete == nil {
		return Prompt{}, ErrNoCompletion
	}

	e.mu.Lock()
	e.sessions[key] = &session{
		def:       def,
		values:    newValues(),
		createdAt: e.now(),
	}
	e.mu.Unlock()

	logger.Debug(ctx, "form", "form.start",
		slog.String("form", def.Name),
		slog.Int64("chat_id", key.ChatID),
		slog.Int64("user_id", key.UserID),
		slog.Int("fields", len(def.Fields)),
	)
	return promptAt(def, 0), nil
}

// Submit feeds raw input to the session under key.
//
// Without a session it returns ErrNoSession. A rejected value returns
// InvalidInputError and leaves the session at the same step with the same
// collected values. An accepted value either advances to the next field
// (Result.Next) or, on the final field, removes the session and then runs
// OnComplete exactly once with the full mapping. A failed completion returns
// CompletionError; the session stays removed either way.
func (e *Engine) Submit(ctx context.Context, key Key, raw string) (Result, error) {
	e.mu.Lock()
	sess, ok := e.sessions[key]
	if !ok {
		e.mu.Unlock()
		return Result{}, ErrNoSession
	}

	name := sess.def.Name
	field := sess.def.Fields[sess.step]
	value, err := acceptValue(field, raw)
	if err != nil {
		prompt := promptAt(sess.def, sess.step)
		e.mu.Unlock()
		logger.Debug(ctx, "form", "form.reject",
			slog.String("form", name),
			slog.String("field", field.Name),
			slog.Int64("chat_id", key.ChatID),
			slog.Int64("user_id", key.UserID),
		)
		return Result{}, &InvalidInputError{Field: field.Name, Prompt: prompt, Err: err}
	}

	sess.values.set(field.Name, value)
	if sess.step+1 < len(sess.def.Fields) {
		sess.step++
		next := promptAt(sess.def, sess.step)
		step := sess.step
		e.mu.Unlock()
		logger.Debug(ctx, "form", "form.step",
			slog.String("form", name),
			slog.String("field", next.Field),
			slog.Int("step", step),
			slog.Int64("chat_id", key.ChatID),
			slog.Int64("user_id", key.UserID),
		)
		return Result{Form: name, Next: next}, nil
	}

	// Final field: the session leaves the table before the completion runs.
	// A concurrent submit or sweep observes no session, and the completion
	// runs at most once.
	delete(e.sessions, key)
	complete := sess.def.OnComplete
	values := sess.values
	e.mu.Unlock()

	res := Result{Form: name, Done: true, Values: values}
	if err := complete(ctx, values); err != nil {
		logger.Warn(ctx, "form", "form.complete_failed",
			slog.String("form", name),
			slog.Int64("chat_id", key.ChatID),
			slog.Int64("user_id", key.UserID),
			slog.String("err", err.Error()),
		)
		return res, &CompletionError{Form: name, Err: err}
	}
	logger.Info(ctx, "form", "form.complete",
		slog.String("form", name),
		slog.Int("fields", values.Len()),
		slog.Int64("chat_id", key.ChatID),
		slog.Int64("user_id", key.UserID),
	)
	return res, nil
}

// Cancel removes the session under key without running its completion. It is
// idempotent and reports whether a session existed.
func (e *Engine) Cancel(key Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[key]
	delete(e.sessions, key)
	return ok
}

// Expire removes every session whose age at now meets or exceeds the timeout.
// Completions never run for expired sessions. It returns the reaped count and
// is safe to call concurrently with Start, Submit and Cancel.
func (e *Engine) Expire(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	var reaped int
	for key, sess := range e.sessions {
		if now.Sub(sess.createdAt) >= e.timeout {
			delete(e.sessions, key)
			reaped++
		}
	}
	return reaped
}

// Active reports whether a session exists for key.
func (e *Engine) Active(key Key) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[key]
	return ok
}

// Len returns the number of live sessions.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

func acceptValue(field Field, raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if field.Validate != nil {
		return field.Validate(value)
	}
	if value == "" {
		return "", errEmptyInput
	}
	return value, nil
}

func promptAt(def Definition, idx int) Prompt {
	f := def.Fields[idx]
	return Prompt{Field: f.Name, Text: f.Prompt}
}
