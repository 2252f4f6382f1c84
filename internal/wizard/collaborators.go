package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/psychwebmd-intake/internal/drafts"
	"github.com/wolfman30/psychwebmd-intake/internal/flows"
	"github.com/wolfman30/psychwebmd-intake/internal/forms"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

// DraftStore is the scratch storage the engine saves sessions to.
type DraftStore interface {
	Load(ctx context.Context, key string) (*drafts.Draft, error)
	Save(ctx context.Context, key string, d *drafts.Draft) error
	Clear(ctx context.Context, key string) error
}

// SubmitRequest is the completed answer set of a flow.
type SubmitRequest struct {
	SessionID string
	Flow      *flows.Flow
	Answers   forms.Answers
}

// Receipt identifies the record a successful submission created.
type Receipt struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// Submitter turns a completed flow into a stored record.
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (*Receipt, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, req SubmitRequest) (*Receipt, error)

func (f SubmitterFunc) Submit(ctx context.Context, req SubmitRequest) (*Receipt, error) {
	return f(ctx, req)
}

// SubmitGuard serializes submissions of one session across processes.
type SubmitGuard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// CodeSender delivers the one-time passcode. Delivery is fire-and-forget:
// errors are logged and never block the flow.
type CodeSender interface {
	SendCode(ctx context.Context, method, contact string) error
}

// LogCodeSender stands in for a real delivery channel. No code is issued or
// checked; the passcode field on the form stays unverified.
type LogCodeSender struct {
	Logger *logging.Logger
}

func (s LogCodeSender) SendCode(ctx context.Context, method, contact string) error {
	if contact == "" {
		return errors.New("wizard: no contact to send a code to")
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger.Info("verification code requested", "method", method, "contact", maskContact(contact))
	return nil
}

func maskContact(contact string) string {
	if len(contact) <= 4 {
		return "****"
	}
	return fmt.Sprintf("****%s", contact[len(contact)-4:])
}

// Observer receives wizard transition outcomes, typically for metrics.
type Observer interface {
	ObserveTransition(flowKey, action, outcome string)
}

type noopObserver struct{}

func (noopObserver) ObserveTransition(string, string, string) {}

// LocalGuard serializes submissions within one process. It is used when no
// shared lock backend is configured.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalGuard creates an empty guard.
func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: make(map[string]struct{})}
}

func (g *LocalGuard) Acquire(ctx context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, ErrSubmitInProgress
	}
	g.held[key] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.held, key)
		g.mu.Unlock()
	}, nil
}
