package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bizos/bizos/internal/jobs"
)

// RoleInvalidator drops cached role resolutions.
type RoleInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

// RoleCacheInvalidateJob drops the cached role of one user after an
// out-of-band role change.
type RoleCacheInvalidateJob struct {
	Roles   RoleInvalidator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRoleCacheInvalidateJob initialises the invalidation handler.
func NewRoleCacheInvalidateJob(roles RoleInvalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *RoleCacheInvalidateJob {
	return &RoleCacheInvalidateJob{Roles: roles, Logger: logger, Metrics: metrics}
}

// Handle executes the invalidation.
func (j *RoleCacheInvalidateJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Roles == nil {
		return errors.New("role cache invalidate: handler not configured")
	}
	var payload RoleCacheInvalidatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.UserID <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskAccessRoleCacheInvalidate)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if err := j.Roles.Invalidate(ctx, payload.UserID); err != nil {
		j.logger().Error("invalidate role cache", slog.Int64("user_id", payload.UserID), slog.Any("error", err))
		return err
	}
	j.logger().Info("role cache invalidated", slog.Int64("user_id", payload.UserID))
	return nil
}

func (j *RoleCacheInvalidateJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
