// Package drafts persists in-progress wizard answers between interactions.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/psychwebmd-intake/internal/forms"
)

var (
	// ErrNotFound is returned when no draft exists for a key.
	ErrNotFound = errors.New("drafts: not found")
	// ErrCorrupt is returned when a stored draft cannot be decoded.
	ErrCorrupt = errors.New("drafts: corrupt draft")
	// ErrSubmitInProgress is returned when another submission holds the lock.
	ErrSubmitInProgress = errors.New("drafts: submission already in progress")
)

// Draft is the unsubmitted state of one wizard session. Step and CodeSent
// are UI state and never reach the persisted record. Revision increases on
// every save so replicas sharing a store can tell which copy is newer.
type Draft struct {
	FlowKey   string        `json:"flowKey"`
	Step      int           `json:"step"`
	CodeSent  bool          `json:"codeSent"`
	Answers   forms.Answers `json:"answers"`
	Revision  int64         `json:"revision"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Store is the scratch storage contract. The stored draft is authoritative:
// sessions reload it before every change, Save on every change, and Clear
// once after a successful submission.
type Store interface {
	Load(ctx context.Context, key string) (*Draft, error)
	Save(ctx context.Context, key string, d *Draft) error
	Clear(ctx context.Context, key string) error
}

// Key builds the storage key for a flow session. An empty session keys the
// draft by flow alone.
func Key(flowKey, sessionID string) string {
	if sessionID == "" {
		return flowKey
	}
	return flowKey + ":" + sessionID
}

func encode(d *Draft) ([]byte, error) {
	if d == nil {
		return nil, errors.New("drafts: nil draft")
	}
	out := *d
	out.Answers = d.Answers.Normalize()
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("drafts: marshal: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Draft, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrCorrupt
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if d.Step < 1 {
		return nil, fmt.Errorf("%w: step %d", ErrCorrupt, d.Step)
	}
	if d.Answers == nil {
		d.Answers = forms.Answers{}
	}
	d.Answers = d.Answers.Normalize()
	return &d, nil
}
