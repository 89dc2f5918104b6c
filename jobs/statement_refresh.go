package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

// StatementService describes the behaviour required to regenerate stale
// statements.
type StatementService interface {
	RefreshStale(ctx context.Context, accountID int64) (int, error)
	StaleAccounts(ctx context.Context) ([]int64, error)
}

// StatementRefreshJob coordinates the nightly refresh workflow.
type StatementRefreshJob struct {
	Service StatementService
	Logger  *slog.Logger
	// Fan-out limit across accounts; each account still refreshes its
	// months sequentially to preserve the roll-forward chain.
	Parallelism int
	clock       func() time.Time
}

// NewStatementRefreshJob constructs the job handler.
func NewStatementRefreshJob(service StatementService, logger *slog.Logger) *StatementRefreshJob {
	return &StatementRefreshJob{
		Service:     service,
		Logger:      logger,
		Parallelism: 4,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the statement refresh job.
func (j *StatementRefreshJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("statement refresh: dependencies not configured")
	}
	var payload StatementRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.now()
	if payload.AccountID > 0 {
		refreshed, err := j.Service.RefreshStale(ctx, payload.AccountID)
		if err != nil {
			j.log().Error("refresh account", slog.Int64("account_id", payload.AccountID), slog.Any("error", err))
			return err
		}
		j.log().Info("refreshed statements",
			slog.Int64("account_id", payload.AccountID),
			slog.Int("statements", refreshed),
			slog.Duration("duration", time.Since(start)))
		return nil
	}

	accountIDs, err := j.Service.StaleAccounts(ctx)
	if err != nil {
		j.log().Error("list stale accounts", slog.Any("error", err))
		return err
	}
	if len(accountIDs) == 0 {
		j.log().Info("no stale statements")
		return nil
	}

	limit := j.Parallelism
	if limit <= 0 {
		limit = 1
	}
	// One broken account must not abort the run or cancel its siblings;
	// failures are logged and retried on the next schedule.
	var g errgroup.Group
	g.SetLimit(limit)
	results := make([]int, len(accountIDs))
	var failed int64
	for i, accountID := range accountIDs {
		g.Go(func() error {
			refreshed, err := j.Service.RefreshStale(ctx, accountID)
			if err != nil {
				j.log().Error("refresh account", slog.Int64("account_id", accountID), slog.Any("error", err))
				atomic.AddInt64(&failed, 1)
				return nil
			}
			results[i] = refreshed
			return nil
		})
	}
	_ = g.Wait()
	total := 0
	for _, n := range results {
		total += n
	}

	j.log().Info("refreshed statements",
		slog.Int("accounts", len(accountIDs)),
		slog.Int("failed", int(atomic.LoadInt64(&failed))),
		slog.Int("statements", total),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *StatementRefreshJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStatementRefresh))
	}
	return slog.Default().With(slog.String("job", TaskStatementRefresh))
}

func (j *StatementRefreshJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *StatementRefreshJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
