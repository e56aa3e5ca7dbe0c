package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atlas-portal/atlas-portal/internal/authz"
)

// ErrAssignmentDenied is returned when the assignment guard rejects a role
// change. Unwrap the value for the denial reason via AssignmentError.
var ErrAssignmentDenied = errors.New("role assignment denied")

// AssignmentError carries the guard verdict behind ErrAssignmentDenied.
type AssignmentError struct {
	Reason authz.DenyReason
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("role assignment denied: %s", e.Reason)
}

func (e *AssignmentError) Unwrap() error { return ErrAssignmentDenied }

// RoleGuard is the slice of the authorization service the user directory
// depends on.
type RoleGuard interface {
	CanAssignRole(actorRoleID, targetRoleID string) authz.Decision
}

// Store defines persistence for the user directory.
type Store interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	SetRole(ctx context.Context, userID int64, roleID string) error
	SetDepartment(ctx context.Context, userID int64, departmentKey string) error
}

// Service implements the user directory use cases. Role changes always go
// through the assignment guard and leave an audit trail.
type Service struct {
	repo     Store
	guard    RoleGuard
	emitter  *authz.Emitter
	recorder authz.EventRecorder
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Store, guard RoleGuard, emitter *authz.Emitter, recorder authz.EventRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, guard: guard, emitter: emitter, recorder: recorder, logger: logger}
}

// List returns every user in the directory.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// AssignRole changes a user's role after passing the assignment guard with
// the acting principal's role. Both outcomes are audited.
func (s *Service) AssignRole(ctx context.Context, actor, actorRoleID string, targetUserID int64, newRoleID string) error {
	newRoleID = strings.TrimSpace(newRoleID)
	if newRoleID == "" {
		return fmt.Errorf("assign role: empty role id")
	}
	target, err := s.repo.GetUser(ctx, targetUserID)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	decision := s.guard.CanAssignRole(actorRoleID, newRoleID)
	s.audit(ctx, actor, target, newRoleID, decision)
	if !decision.Allowed {
		return &AssignmentError{Reason: decision.Reason}
	}
	if err := s.repo.SetRole(ctx, targetUserID, newRoleID); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// AssignDepartment moves a user to another department.
func (s *Service) AssignDepartment(ctx context.Context, targetUserID int64, departmentKey string) error {
	departmentKey = strings.TrimSpace(departmentKey)
	if departmentKey == "" {
		departmentKey = authz.DepartmentUnassigned
	}
	if err := s.repo.SetDepartment(ctx, targetUserID, departmentKey); err != nil {
		return fmt.Errorf("assign department: %w", err)
	}
	return nil
}

func (s *Service) audit(ctx context.Context, actor string, target User, newRoleID string, decision authz.Decision) {
	if s.emitter == nil || s.recorder == nil {
		return
	}
	event := s.emitter.Emit(authz.EventInput{
		Actor:    actor,
		Action:   "assign_role",
		Entity:   "user",
		EntityID: fmt.Sprintf("%d", target.ID),
		Decision: decision,
		Meta: map[string]string{
			"previous_role": target.RoleID,
			"new_role":      newRoleID,
		},
	})
	if err := s.recorder.Record(ctx, event); err != nil && s.logger != nil {
		s.logger.Error("users audit record", slog.Any("error", err))
	}
}
