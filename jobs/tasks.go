package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAccessUnknownRoleScan reports profiles holding roles the matrix does not know.
	TaskAccessUnknownRoleScan = "access:unknown_role_scan"
	// TaskAccessRoleCacheInvalidate drops cached role resolutions of a user.
	TaskAccessRoleCacheInvalidate = "access:role_cache_invalidate"
)

// TaskNames lists the task types the worker serves.
func TaskNames() []string {
	return []string{TaskAccessUnknownRoleScan, TaskAccessRoleCacheInvalidate}
}

// UnknownRoleScanPayload tunes the unknown role scan.
type UnknownRoleScanPayload struct {
	// Trigger records who asked for the scan: "cron" or "cli".
	Trigger string `json:"trigger"`
}

// RoleCacheInvalidatePayload names the user whose cached role is dropped.
type RoleCacheInvalidatePayload struct {
	UserID int64 `json:"user_id"`
}

// NewUnknownRoleScanTask constructs the scan task.
func NewUnknownRoleScanTask(trigger string) (*asynq.Task, error) {
	data, err := json.Marshal(UnknownRoleScanPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccessUnknownRoleScan, data), nil
}

// NewRoleCacheInvalidateTask constructs the invalidation task for userID.
func NewRoleCacheInvalidateTask(userID int64) (*asynq.Task, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("jobs: invalid user id %d", userID)
	}
	data, err := json.Marshal(RoleCacheInvalidatePayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccessRoleCacheInvalidate, data), nil
}
