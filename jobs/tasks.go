package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/atlas-portal/atlas-portal/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuthzRefresh reloads the authorization snapshot from storage.
	TaskAuthzRefresh = "authz:refresh"
	// TaskAuditPrune trims audit events past their retention window.
	TaskAuditPrune = "audit:prune"
)

// SnapshotReloader rebuilds the in-memory authorization snapshot.
type SnapshotReloader interface {
	Reload(ctx context.Context) error
}

// AuditPruner removes audit events older than the retention window.
type AuditPruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// NewAuthzRefreshTask constructs the snapshot refresh task.
func NewAuthzRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskAuthzRefresh, nil)
}

// AuditPrunePayload carries the retention window for a prune run.
type AuditPrunePayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewAuditPruneTask constructs an audit prune task.
func NewAuditPruneTask(payload AuditPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, data), nil
}

// NewAuthzRefreshHandler processes TaskAuthzRefresh tasks.
func NewAuthzRefreshHandler(svc SnapshotReloader, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("authz_refresh")
		err := svc.Reload(ctx)
		if err != nil && logger != nil {
			logger.Error("authz refresh", slog.Any("error", err))
		}
		return tracker.End(err)
	}
}

// NewAuditPruneHandler processes TaskAuditPrune tasks.
func NewAuditPruneHandler(pruner AuditPruner, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.RetentionHours <= 0 {
			payload.RetentionHours = 24 * 90
		}
		tracker := metrics.Track("audit_prune")
		deleted, err := pruner.Prune(ctx, time.Duration(payload.RetentionHours)*time.Hour)
		if err != nil {
			if logger != nil {
				logger.Error("audit prune", slog.Any("error", err))
			}
			return tracker.End(err)
		}
		if logger != nil {
			logger.Info("audit prune", slog.Int64("deleted", deleted))
		}
		return tracker.End(nil)
	}
}
