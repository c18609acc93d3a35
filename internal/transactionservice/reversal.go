package transactionservice

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/internal/roleauth"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/metricspkg"
)

// Reverse writes a REVERSAL entry with the opposite amount for every entry of the reference
// number. A reference is reversed at most once and reversals are never reversed.
func (e *Engine) Reverse(ctx context.Context, arg domain.ReversalParams) (domain.Execution, error) {
	l := zerolog.Ctx(ctx)
	start := time.Now()

	requester, err := e.Requester(ctx, arg.RequesterID)
	if err != nil {
		e.record(domain.TransactionTypeReversal, err)
		return domain.Execution{}, err
	}

	var exec domain.Execution

	err = e.store.ExecTx(ctx, func(ctx context.Context, q LedgerQueries) error {
		original, err := q.ListByReference(ctx, arg.ReferenceNumber)
		if err != nil {
			return err
		}

		if len(original) == 0 {
			return domain.ErrTransactionNotFound
		}

		amount := decimal.Zero
		ids := make([]int64, 0, len(original))

		for _, t := range original {
			if t.Type == domain.TransactionTypeReversal {
				return domain.ErrReversalOfReversal
			}

			if abs := t.Amount.Abs(); abs.GreaterThan(amount) {
				amount = abs
			}

			ids = append(ids, t.AccountID)
		}

		if !roleauth.WithinCeiling(requester.Role, amount) {
			return &domain.AuthorizationExceededError{
				Role:    requester.Role,
				Amount:  amount,
				Ceiling: roleauth.PolicyOf(requester.Role).Ceiling,
			}
		}

		reversed, err := q.IsReversed(ctx, arg.ReferenceNumber)
		if err != nil {
			return err
		}

		if reversed {
			return domain.ErrAlreadyReversed
		}

		locked, err := lockAccounts(ctx, q, ids...)
		if err != nil {
			return err
		}

		for _, t := range original {
			a := locked[t.AccountID]

			if err := requireActive(a); err != nil {
				return err
			}

			if t.Amount.IsPositive() && !a.CanWithdraw(t.Amount) {
				return &domain.InsufficientFundsError{
					AccountNumber: a.Number,
					Available:     a.Type.Available(a.Balance),
					Requested:     t.Amount,
				}
			}
		}

		ref, err := e.newReference(ctx, q)
		if err != nil {
			return err
		}

		rows := make([]domain.Transaction, 0, len(original))

		for _, t := range original {
			row, updated, err := post(ctx, q, locked[t.AccountID], domain.CreateTransactionParams{
				Type:            domain.TransactionTypeReversal,
				Amount:          t.Amount.Neg(),
				Description:     arg.Reason,
				ReferenceNumber: ref,
				ReversedRef:     arg.ReferenceNumber,
				CreatedBy:       requester.ID,
			})
			if err != nil {
				return err
			}

			locked[t.AccountID] = updated
			rows = append(rows, row)
		}

		exec = domain.Execution{ReferenceNumber: ref, Transactions: rows}

		return nil
	})

	metricspkg.TransactionDuration.WithLabelValues(string(domain.TransactionTypeReversal)).Observe(time.Since(start).Seconds())
	e.record(domain.TransactionTypeReversal, err)

	if err != nil {
		l.Info().Err(err).Str("reversed_reference", arg.ReferenceNumber).Msg("reversal refused")
		return domain.Execution{}, err
	}

	l.Warn().
		Str("reversed_reference", arg.ReferenceNumber).
		Str("reference", exec.ReferenceNumber).
		Int64("requester_id", requester.ID).
		Str("reason", arg.Reason).
		Msg("transaction reversed")

	return exec, nil
}

// PostInterest credits one month of interest to the account, at most once per calendar month.
// It reports false when the account type pays no interest or the balance is not positive.
func (e *Engine) PostInterest(ctx context.Context, accountID, requesterID int64) (domain.Transaction, bool, error) {
	l := zerolog.Ctx(ctx)

	var (
		posted domain.Transaction
		ok     bool
	)

	err := e.store.ExecTx(ctx, func(ctx context.Context, q LedgerQueries) error {
		locked, err := lockAccounts(ctx, q, accountID)
		if err != nil {
			return err
		}

		a := locked[accountID]

		if err := requireActive(a); err != nil {
			return err
		}

		interest := a.Type.MonthlyInterest(a.Balance)
		if !interest.IsPositive() {
			return nil
		}

		dayStart, _ := e.dayBounds(e.now())
		monthStart := dayStart.AddDate(0, 0, 1-dayStart.Day())

		already, err := q.HasTransactionSince(ctx, a.ID, domain.TransactionTypeInterest, monthStart)
		if err != nil {
			return err
		}

		if already {
			return domain.ErrInterestAlreadyPosted
		}

		ref, err := e.newReference(ctx, q)
		if err != nil {
			return err
		}

		posted, _, err = post(ctx, q, a, domain.CreateTransactionParams{
			Type:            domain.TransactionTypeInterest,
			Amount:          interest,
			Description:     "Monthly interest " + monthStart.Format("2006-01"),
			ReferenceNumber: ref,
			CreatedBy:       requesterID,
		})
		if err != nil {
			return err
		}

		ok = true

		return nil
	})

	if ok || err != nil {
		e.record(domain.TransactionTypeInterest, err)
	}

	if err != nil {
		l.Info().Err(err).Int64("account_id", accountID).Msg("interest not posted")
		return domain.Transaction{}, false, err
	}

	if ok {
		l.Info().Int64("account_id", accountID).Str("amount", posted.Amount.StringFixed(2)).Msg("interest posted")
	}

	return posted, ok, nil
}
