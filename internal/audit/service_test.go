package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-portal/atlas-portal/internal/authz"
)

type stubRepo struct {
	inserted    []authz.Event
	lastFilters Filters
	lastCutoff  time.Time
	deleted     int64
}

func (r *stubRepo) InsertEvent(ctx context.Context, event authz.Event) error {
	r.inserted = append(r.inserted, event)
	return nil
}

func (r *stubRepo) ListEvents(ctx context.Context, filters Filters) ([]authz.Event, error) {
	r.lastFilters = filters
	return nil, nil
}

func (r *stubRepo) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.lastCutoff = cutoff
	return r.deleted, nil
}

func TestRecordRequiresIDAndAction(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	err := svc.Record(ctx, authz.Event{Action: "authorize"})
	assert.Error(t, err)
	err = svc.Record(ctx, authz.Event{ID: "evt-1"})
	assert.Error(t, err)
	assert.Empty(t, repo.inserted)

	require.NoError(t, svc.Record(ctx, authz.Event{ID: "evt-1", Action: "authorize"}))
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, "evt-1", repo.inserted[0].ID)
}

func TestRecentClampsLimitAndTrimsFilters(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Recent(ctx, Filters{})
	require.NoError(t, err)
	assert.Equal(t, 50, repo.lastFilters.Limit)

	_, err = svc.Recent(ctx, Filters{Limit: 9999, Actor: "  7 ", Entity: " user ", Action: " assign_role "})
	require.NoError(t, err)
	assert.Equal(t, 200, repo.lastFilters.Limit)
	assert.Equal(t, "7", repo.lastFilters.Actor)
	assert.Equal(t, "user", repo.lastFilters.Entity)
	assert.Equal(t, "assign_role", repo.lastFilters.Action)
}

func TestPrune(t *testing.T) {
	repo := &stubRepo{deleted: 12}
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Prune(ctx, 0)
	assert.Error(t, err)

	n, err := svc.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.WithinDuration(t, time.Now().UTC().Add(-24*time.Hour), repo.lastCutoff, time.Minute)
}

func TestServiceWithoutRepository(t *testing.T) {
	var svc *Service
	assert.Error(t, svc.Record(context.Background(), authz.Event{ID: "x", Action: "y"}))

	empty := NewService(nil)
	_, err := empty.Recent(context.Background(), Filters{})
	assert.Error(t, err)
}
