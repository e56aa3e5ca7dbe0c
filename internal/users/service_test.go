package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-portal/atlas-portal/internal/authz"
	"github.com/atlas-portal/atlas-portal/internal/shared"
)

type stubStore struct {
	users       map[int64]User
	roles       map[int64]string
	departments map[int64]string
}

func newStubStore(users ...User) *stubStore {
	s := &stubStore{
		users:       make(map[int64]User),
		roles:       make(map[int64]string),
		departments: make(map[int64]string),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubStore) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubStore) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := s.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubStore) SetRole(ctx context.Context, userID int64, roleID string) error {
	if _, ok := s.users[userID]; !ok {
		return shared.ErrNotFound
	}
	s.roles[userID] = roleID
	return nil
}

func (s *stubStore) SetDepartment(ctx context.Context, userID int64, departmentKey string) error {
	if _, ok := s.users[userID]; !ok {
		return shared.ErrNotFound
	}
	s.departments[userID] = departmentKey
	return nil
}

type stubGuard struct {
	decision authz.Decision
}

func (g stubGuard) CanAssignRole(actorRoleID, targetRoleID string) authz.Decision {
	return g.decision
}

type captureRecorder struct {
	events []authz.Event
}

func (r *captureRecorder) Record(ctx context.Context, event authz.Event) error {
	r.events = append(r.events, event)
	return nil
}

func newTestService(store *stubStore, guard RoleGuard, recorder *captureRecorder) *Service {
	emitter := authz.NewEmitter(authz.WithClock(func() time.Time {
		return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	}))
	return NewService(store, guard, emitter, recorder, nil)
}

func TestAssignRoleAllowed(t *testing.T) {
	store := newStubStore(User{ID: 12, RoleID: "basic_user_1"})
	recorder := &captureRecorder{}
	svc := newTestService(store, stubGuard{decision: authz.Allow()}, recorder)

	err := svc.AssignRole(context.Background(), "3", "administrator", 12, "advance_user_1")
	require.NoError(t, err)
	assert.Equal(t, "advance_user_1", store.roles[12])

	require.Len(t, recorder.events, 1)
	event := recorder.events[0]
	assert.True(t, event.Allowed)
	assert.Equal(t, "3", event.Actor)
	assert.Equal(t, "assign_role", event.Action)
	assert.Equal(t, "12", event.EntityID)
	assert.Equal(t, "basic_user_1", event.Meta["previous_role"])
	assert.Equal(t, "advance_user_1", event.Meta["new_role"])
}

func TestAssignRoleDenied(t *testing.T) {
	store := newStubStore(User{ID: 12, RoleID: "basic_user_1"})
	recorder := &captureRecorder{}
	svc := newTestService(store, stubGuard{decision: authz.Deny(authz.DenyExceedsGrantableLevel)}, recorder)

	err := svc.AssignRole(context.Background(), "3", "administrator", 12, "system_administrator")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAssignmentDenied))

	var denied *AssignmentError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, authz.DenyExceedsGrantableLevel, denied.Reason)

	// The denial is audited but nothing is persisted.
	_, changed := store.roles[12]
	assert.False(t, changed)
	require.Len(t, recorder.events, 1)
	assert.False(t, recorder.events[0].Allowed)
}

func TestAssignRoleUnknownTarget(t *testing.T) {
	store := newStubStore()
	recorder := &captureRecorder{}
	svc := newTestService(store, stubGuard{decision: authz.Allow()}, recorder)

	err := svc.AssignRole(context.Background(), "3", "administrator", 99, "basic_user_1")
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.Empty(t, recorder.events, "nothing to audit before the guard runs")
}

func TestAssignRoleEmptyRole(t *testing.T) {
	store := newStubStore(User{ID: 12})
	svc := newTestService(store, stubGuard{decision: authz.Allow()}, &captureRecorder{})

	err := svc.AssignRole(context.Background(), "3", "administrator", 12, "  ")
	assert.Error(t, err)
}

func TestAssignDepartmentDefaultsUnassigned(t *testing.T) {
	store := newStubStore(User{ID: 12})
	svc := newTestService(store, stubGuard{decision: authz.Allow()}, &captureRecorder{})

	require.NoError(t, svc.AssignDepartment(context.Background(), 12, "  "))
	assert.Equal(t, authz.DepartmentUnassigned, store.departments[12])

	require.NoError(t, svc.AssignDepartment(context.Background(), 12, "CALL_CENTER"))
	assert.Equal(t, "CALL_CENTER", store.departments[12])
}
