package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage. There is no
// update: records are immutable once created.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) (*Appointment, error)
	List(ctx context.Context) ([]*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
}

// InMemoryRepository keeps appointments in a map keyed by ID.
type InMemoryRepository struct {
	mu           sync.RWMutex
	appointments map[string]*stored
	seq          uint64
	now          func() time.Time
}

type stored struct {
	appt *Appointment
	seq  uint64
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		appointments: make(map[string]*stored),
		now:          time.Now,
	}
}

// Create assigns an identity and timestamp and stores a copy of appt.
func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	rec := *appt
	rec.ID = uuid.New().String()
	rec.CreatedAt = r.now().UTC()
	rec.Concerns = append([]string(nil), appt.Concerns...)

	r.mu.Lock()
	r.seq++
	r.appointments[rec.ID] = &stored{appt: &rec, seq: r.seq}
	r.mu.Unlock()

	out := rec
	return &out, nil
}

// List returns copies of all appointments, newest first.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Appointment, error) {
	r.mu.RLock()
	all := make([]*stored, 0, len(r.appointments))
	for _, s := range r.appointments {
		all = append(all, s)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].appt.CreatedAt.Equal(all[j].appt.CreatedAt) {
			return all[i].appt.CreatedAt.After(all[j].appt.CreatedAt)
		}
		return all[i].seq > all[j].seq
	})
	out := make([]*Appointment, len(all))
	for i, s := range all {
		cp := *s.appt
		out[i] = &cp
	}
	return out, nil
}

// GetByID retrieves an appointment by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *s.appt
	return &cp, nil
}
