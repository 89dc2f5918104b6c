// Package jobs hosts the Asynq worker, its task definitions, and the cron
// schedule that keeps monthly statements fresh after out-of-band imports.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatementRefresh regenerates stale monthly statements.
	TaskStatementRefresh = "statements:refresh"
)

// StatementRefreshPayload scopes a refresh run. A zero AccountID means
// every account with stale statements.
type StatementRefreshPayload struct {
	AccountID int64 `json:"account_id"`
}

// NewStatementRefreshTask constructs an Asynq task.
func NewStatementRefreshTask(accountID int64) (*asynq.Task, error) {
	body, err := json.Marshal(StatementRefreshPayload{AccountID: accountID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatementRefresh, body, asynq.Queue(QueueDefault)), nil
}
