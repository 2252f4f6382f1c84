package contact

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for contact submission storage
type Repository interface {
	Create(ctx context.Context, req *CreateRequest) (*Submission, error)
	List(ctx context.Context) ([]*Submission, error)
	GetByID(ctx context.Context, id string) (*Submission, error)
}

// InMemoryRepository is an in-memory implementation of Repository
type InMemoryRepository struct {
	mu          sync.RWMutex
	submissions map[string]*Submission
	order       []string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		submissions: make(map[string]*Submission),
	}
}

// Create stores a new contact submission
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateRequest) (*Submission, error) {
	sub := &Submission{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.submissions[sub.ID] = sub
	r.order = append(r.order, sub.ID)
	r.mu.Unlock()

	out := *sub
	return &out, nil
}

// List returns submissions newest first.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Submission, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		cp := *r.submissions[r.order[i]]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetByID retrieves a contact submission by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.submissions[id]
	if !ok {
		return nil, ErrContactNotFound
	}
	out := *sub
	return &out, nil
}
