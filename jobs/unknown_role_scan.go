package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bizos/bizos/internal/jobs"
	"github.com/bizos/bizos/internal/profiles"
	"github.com/bizos/bizos/internal/rbac"
)

// UnknownRoleLister lists live profiles whose role fails known.
type UnknownRoleLister interface {
	ListUnknownRoles(ctx context.Context, known func(rbac.Role) bool) ([]profiles.RoleCount, error)
}

// UnknownRoleScanJob finds profiles whose primary role carries no grants.
// Such users are silently denied everywhere.
type UnknownRoleScanJob struct {
	Profiles UnknownRoleLister
	Matrix   *rbac.Matrix
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewUnknownRoleScanJob initialises the scan handler.
func NewUnknownRoleScanJob(lister UnknownRoleLister, matrix *rbac.Matrix, logger *slog.Logger, metrics *jobmetrics.Metrics) *UnknownRoleScanJob {
	return &UnknownRoleScanJob{Profiles: lister, Matrix: matrix, Logger: logger, Metrics: metrics}
}

// Handle executes the scan.
func (j *UnknownRoleScanJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Profiles == nil || j.Matrix == nil {
		return errors.New("unknown role scan: handler not configured")
	}
	var payload UnknownRoleScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	start := time.Now()
	tracker := j.Metrics.Track(TaskAccessUnknownRoleScan)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("trigger", payload.Trigger))
	counts, err := j.Profiles.ListUnknownRoles(ctx, j.Matrix.Has)
	if err != nil {
		logger.Error("unknown role scan failed", slog.Any("error", err))
		return err
	}

	gauge := make(map[string]int, len(counts))
	total := 0
	for _, c := range counts {
		logger.Warn("unknown role in profiles",
			slog.String("role", string(c.Role)),
			slog.Int("profiles", c.Profiles),
		)
		gauge[string(c.Role)] = c.Profiles
		total += c.Profiles
	}
	j.Metrics.SetUnknownRoles(gauge)

	logger.Info("completed unknown role scan",
		slog.Int("roles", len(counts)),
		slog.Int("profiles", total),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *UnknownRoleScanJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
