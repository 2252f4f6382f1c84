// Package wizard runs the multi-step booking flows. One engine drives every
// flow from its step table; sessions hold the current step pointer and the
// accumulated answers and mirror them into a draft store on every change.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/psychwebmd-intake/internal/drafts"
	"github.com/wolfman30/psychwebmd-intake/internal/flows"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

// DefaultFailureMessage is shown when a submission fails without a reason.
const DefaultFailureMessage = "Please try again or call us at (716) 526-4041."

// Config wires an engine's collaborators.
type Config struct {
	Flows     *flows.Registry
	Drafts    DraftStore
	Submitter Submitter
	Codes     CodeSender
	Guard     SubmitGuard
	Observer  Observer
	Logger    *logging.Logger
	// FailureMessage overrides DefaultFailureMessage.
	FailureMessage string
}

// Engine owns the live sessions of a process.
type Engine struct {
	flows          *flows.Registry
	drafts         DraftStore
	submitter      Submitter
	codes          CodeSender
	guard          SubmitGuard
	observer       Observer
	logger         *logging.Logger
	failureMessage string

	mu       sync.Mutex
	sessions map[string]*Session
}

// New builds an engine. Flows, Drafts and Submitter are required.
func New(cfg Config) (*Engine, error) {
	if cfg.Flows == nil {
		return nil, errors.New("wizard: flow registry required")
	}
	if cfg.Drafts == nil {
		return nil, errors.New("wizard: draft store required")
	}
	if cfg.Submitter == nil {
		return nil, errors.New("wizard: submitter required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Codes == nil {
		cfg.Codes = LogCodeSender{Logger: cfg.Logger}
	}
	if cfg.Guard == nil {
		cfg.Guard = NewLocalGuard()
	}
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}
	if cfg.FailureMessage == "" {
		cfg.FailureMessage = DefaultFailureMessage
	}
	return &Engine{
		flows:          cfg.Flows,
		drafts:         cfg.Drafts,
		submitter:      cfg.Submitter,
		codes:          cfg.Codes,
		guard:          cfg.Guard,
		observer:       cfg.Observer,
		logger:         cfg.Logger,
		failureMessage: cfg.FailureMessage,
		sessions:       make(map[string]*Session),
	}, nil
}

// Flows exposes the registry the engine was built with.
func (e *Engine) Flows() *flows.Registry { return e.flows }

// Open returns the session for (flowKey, sessionID), resuming from its draft
// when one exists. An empty sessionID starts a new session. A corrupt draft
// is discarded and the session starts fresh. A new session saves its draft
// at once so any replica sharing the draft store can serve it.
func (e *Engine) Open(ctx context.Context, flowKey, sessionID string) (*Session, error) {
	flow, err := e.flows.Lookup(flowKey)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	key := sessionKey(flowKey, sessionID)
	e.mu.Lock()
	cached, ok := e.sessions[key]
	e.mu.Unlock()
	if ok {
		err := cached.refresh(ctx)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		e.forget(key, cached)
	}

	s := newSession(e, flow, sessionID)
	restored := false
	draft, err := e.drafts.Load(ctx, s.draftKey())
	switch {
	case err == nil:
		s.restore(draft)
		restored = true
		e.logger.Debug("draft resumed", "flow", flowKey, "session_id", sessionID, "step", s.step)
	case errors.Is(err, drafts.ErrNotFound):
	case errors.Is(err, drafts.ErrCorrupt):
		e.logger.Warn("discarding corrupt draft", "flow", flowKey, "session_id", sessionID, "error", err)
		if clearErr := e.drafts.Clear(ctx, s.draftKey()); clearErr != nil {
			e.logger.Error("failed to clear corrupt draft", "error", clearErr)
		}
	default:
		return nil, fmt.Errorf("wizard: load draft: %w", err)
	}
	if !restored {
		s.mu.Lock()
		s.saveLocked(ctx)
		s.mu.Unlock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.sessions[key]; ok {
		return existing, nil
	}
	e.sessions[key] = s
	return s, nil
}

// Get returns a session that is already open in this process, brought up
// to date with its draft, or resumes it from its draft. A cached session
// whose draft has vanished was submitted or expired elsewhere and is
// dropped.
func (e *Engine) Get(ctx context.Context, flowKey, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	key := sessionKey(flowKey, sessionID)
	e.mu.Lock()
	s, ok := e.sessions[key]
	e.mu.Unlock()
	if ok {
		if err := s.refresh(ctx); err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				e.forget(key, s)
			}
			return nil, err
		}
		return s, nil
	}
	if _, err := e.flows.Lookup(flowKey); err != nil {
		return nil, err
	}
	if _, err := e.drafts.Load(ctx, drafts.Key(flowKey, sessionID)); err != nil {
		if errors.Is(err, drafts.ErrNotFound) || errors.Is(err, drafts.ErrCorrupt) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("wizard: load draft: %w", err)
	}
	return e.Open(ctx, flowKey, sessionID)
}

// Close forgets an in-memory session. Its draft is left untouched.
func (e *Engine) Close(flowKey, sessionID string) {
	e.mu.Lock()
	delete(e.sessions, sessionKey(flowKey, sessionID))
	e.mu.Unlock()
}

// forget drops s from the cache unless another session has replaced it.
func (e *Engine) forget(key string, s *Session) {
	e.mu.Lock()
	if e.sessions[key] == s {
		delete(e.sessions, key)
	}
	e.mu.Unlock()
}

func sessionKey(flowKey, sessionID string) string {
	return drafts.Key(flowKey, sessionID)
}

// Sweep forgets sessions idle for longer than idle and returns how many were
// dropped. Drafts stay in the draft store and resume on the next Open.
func (e *Engine) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	e.mu.Lock()
	defer e.mu.Unlock()
	dropped := 0
	for key, s := range e.sessions {
		if s.lastUsed().Before(cutoff) {
			delete(e.sessions, key)
			dropped++
		}
	}
	return dropped
}

// RunSweeper calls Sweep every interval until ctx is done.
func (e *Engine) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := e.Sweep(idle); n > 0 {
				e.logger.Debug("idle wizard sessions dropped", "count", n)
			}
		}
	}
}
