// Package interestjob posts monthly interest to every interest-bearing account.
// A redis lock keeps concurrent instances from running the same month twice.
package interestjob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/rs/zerolog"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
)

const (
	defaultBatchSize = 100
	lockExpiry       = 30 * time.Minute
)

// SystemRequester is the creator recorded on entries posted by the job.
const SystemRequester int64 = 0

// Accounts pages through interest-bearing accounts in id order.
//
//go:generate mockgen -source runner.go -destination runner_mock.go -package interestjob
type Accounts interface {
	ListInterestBearing(ctx context.Context, afterID int64, limit int32) ([]domain.Account, error)
}

// Poster posts one month of interest to an account.
type Poster interface {
	PostInterest(ctx context.Context, accountID, requesterID int64) (domain.Transaction, bool, error)
}

// Summary counts the outcome of one run.
type Summary struct {
	Month   string
	Posted  int
	Skipped int
	Failed  int
	Locked  bool
}

// Runner posts interest for the current month.
type Runner struct {
	accounts  Accounts
	poster    Poster
	rs        *redsync.Redsync
	loc       *time.Location
	batchSize int32
	now       func() time.Time
}

// New returns Runner. A nil rs runs without a cross-instance lock.
func New(accounts Accounts, poster Poster, rs *redsync.Redsync, loc *time.Location) *Runner {
	if loc == nil {
		loc = time.UTC
	}

	return &Runner{
		accounts:  accounts,
		poster:    poster,
		rs:        rs,
		loc:       loc,
		batchSize: defaultBatchSize,
		now:       time.Now,
	}
}

// LockKey returns the redis key guarding the run of month.
func LockKey(month string) string {
	return "lock:interest:" + month
}

func lockContention(err error) bool {
	var taken *redsync.ErrTaken

	return errors.Is(err, redsync.ErrFailed) ||
		errors.As(err, &taken) ||
		strings.Contains(err.Error(), "lock already taken")
}

// RunOnce posts interest for the current month to every eligible account. Accounts that
// already received interest this month are skipped. When another instance holds the month's
// lock it returns with Locked set.
func (r *Runner) RunOnce(ctx context.Context) (Summary, error) {
	l := zerolog.Ctx(ctx)

	summary := Summary{Month: r.now().In(r.loc).Format("2006-01")}

	if r.rs != nil {
		mutex := r.rs.NewMutex(LockKey(summary.Month),
			redsync.WithExpiry(lockExpiry),
			redsync.WithTries(1),
		)

		if err := mutex.LockContext(ctx); err != nil {
			if lockContention(err) {
				l.Info().Str("month", summary.Month).Msg("interest run held by another instance")
				summary.Locked = true

				return summary, nil
			}

			return summary, fmt.Errorf("acquire interest lock: %w", err)
		}

		defer func() {
			if _, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil {
				l.Error().Err(err).Str("month", summary.Month).Msg("release interest lock")
			}
		}()
	}

	var afterID int64

	for {
		accounts, err := r.accounts.ListInterestBearing(ctx, afterID, r.batchSize)
		if err != nil {
			return summary, err
		}

		for _, a := range accounts {
			afterID = a.ID

			_, posted, err := r.poster.PostInterest(ctx, a.ID, SystemRequester)

			switch {
			case err == nil && posted:
				summary.Posted++
			case err == nil, errors.Is(err, domain.ErrInterestAlreadyPosted), errors.Is(err, domain.ErrAccountNotActive):
				summary.Skipped++
			default:
				summary.Failed++
				l.Error().Err(err).Int64("account_id", a.ID).Msg("post interest")
			}
		}

		if int32(len(accounts)) < r.batchSize {
			break
		}
	}

	l.Info().
		Str("month", summary.Month).
		Int("posted", summary.Posted).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("interest run finished")

	return summary, nil
}

// Run calls RunOnce every interval until ctx is done.
func (r *Runner) Run(ctx context.Context, interval time.Duration) {
	l := zerolog.Ctx(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil {
			l.Error().Err(err).Msg("interest run")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
