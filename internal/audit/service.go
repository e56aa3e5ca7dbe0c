package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atlas-portal/atlas-portal/internal/authz"
)

// Repository provides persistence for audit events.
type Repository interface {
	InsertEvent(ctx context.Context, event authz.Event) error
	ListEvents(ctx context.Context, filters Filters) ([]authz.Event, error)
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Filters narrows an audit event listing.
type Filters struct {
	Actor  string
	Entity string
	Action string
	Limit  int
}

// Service persists the audit events the authorization core emits and serves
// the operator-facing listing. It satisfies authz.EventRecorder.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record persists one audit event.
func (s *Service) Record(ctx context.Context, event authz.Event) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if event.ID == "" || event.Action == "" {
		return errors.New("audit: event requires id and action")
	}
	return s.repo.InsertEvent(ctx, event)
}

// Recent returns the latest events matching the filters, newest first.
func (s *Service) Recent(ctx context.Context, filters Filters) ([]authz.Event, error) {
	if s == nil || s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	if filters.Limit <= 0 {
		filters.Limit = 50
	}
	if filters.Limit > 200 {
		filters.Limit = 200
	}
	filters.Actor = strings.TrimSpace(filters.Actor)
	filters.Entity = strings.TrimSpace(filters.Entity)
	filters.Action = strings.TrimSpace(filters.Action)
	return s.repo.ListEvents(ctx, filters)
}

// Prune removes events older than the retention window and reports how many
// were deleted.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, errors.New("audit: repository not configured")
	}
	if retention <= 0 {
		return 0, errors.New("audit: retention must be positive")
	}
	return s.repo.DeleteEventsBefore(ctx, time.Now().UTC().Add(-retention))
}

var _ authz.EventRecorder = (*Service)(nil)
