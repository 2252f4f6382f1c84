package contact

import (
	"context"
	"fmt"

	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

// Recorder observes created and rejected submissions.
type Recorder interface {
	ObserveContactCreated()
	ObserveValidationFailure(resource string)
}

// Service validates and stores contact submissions.
type Service struct {
	repo     Repository
	recorder Recorder
	logger   *logging.Logger
}

// NewService wires a service. recorder may be nil.
func NewService(repo Repository, recorder Recorder, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

// Create validates req and stores it.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Submission, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		if s.recorder != nil {
			s.recorder.ObserveValidationFailure("contact")
		}
		return nil, err
	}
	sub, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("contact: create: %w", err)
	}
	if s.recorder != nil {
		s.recorder.ObserveContactCreated()
	}
	s.logger.Info("contact submission created", "id", sub.ID)
	return sub, nil
}

// List returns every submission, newest first.
func (s *Service) List(ctx context.Context) ([]*Submission, error) {
	return s.repo.List(ctx)
}

// Get returns one submission or ErrContactNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Submission, error) {
	return s.repo.GetByID(ctx, id)
}
