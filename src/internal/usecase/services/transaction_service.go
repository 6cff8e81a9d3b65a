package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/api-sage/bank-account-service/src/internal/adapter/http/models"
	"github.com/api-sage/bank-account-service/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-account-service/src/internal/commons"
	"github.com/api-sage/bank-account-service/src/internal/domain"
	"github.com/api-sage/bank-account-service/src/internal/logger"
	"github.com/shopspring/decimal"
)

const backoffBase = 5 * time.Millisecond
const backoffCap = 50 * time.Millisecond

// backoffBase << maxBackoffShift already exceeds backoffCap, so larger
// shifts would only risk overflow without changing the delay.
const maxBackoffShift = 4

// TransactionService applies signed balance deltas under optimistic
// concurrency. Every attempt re-reads the freshest account state, re-checks
// the non-negative invariant against that state, and commits through the
// repository's compare-and-swap. Only version conflicts are retried; a
// not-found or insufficient-balance outcome is terminal on first sight.
type TransactionService struct {
	accountRepo       repo_interfaces.AccountRepository
	maxCommitAttempts int
}

func NewTransactionService(accountRepo repo_interfaces.AccountRepository, maxCommitAttempts int) *TransactionService {
	if maxCommitAttempts < 1 {
		maxCommitAttempts = 1
	}
	return &TransactionService{
		accountRepo:       accountRepo,
		maxCommitAttempts: maxCommitAttempts,
	}
}

func (s *TransactionService) Deposit(ctx context.Context, iban string, req models.TransactionRequest) (commons.Response[models.BalanceResponse], error) {
	logger.Info("transaction service deposit request", logger.Fields{
		"iban":    iban,
		"payload": logger.SanitizePayload(req),
	})

	return s.applyTransaction(ctx, iban, req, false)
}

func (s *TransactionService) Withdraw(ctx context.Context, iban string, req models.TransactionRequest) (commons.Response[models.BalanceResponse], error) {
	logger.Info("transaction service withdraw request", logger.Fields{
		"iban":    iban,
		"payload": logger.SanitizePayload(req),
	})

	return s.applyTransaction(ctx, iban, req, true)
}

func (s *TransactionService) applyTransaction(ctx context.Context, iban string, req models.TransactionRequest, negate bool) (commons.Response[models.BalanceResponse], error) {
	iban = strings.TrimSpace(iban)
	if iban == "" {
		err := errors.New("iban is required")
		return commons.ErrorResponse[models.BalanceResponse]("validation failed", err.Error()), err
	}

	if err := req.Validate(); err != nil {
		logger.Error("transaction service validation failed", err, logger.Fields{
			"iban": iban,
		})
		return commons.ErrorResponse[models.BalanceResponse]("validation failed", err.Error()), err
	}

	delta, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return commons.ErrorResponse[models.BalanceResponse]("validation failed", "amount must be numeric"), err
	}
	if negate {
		delta = delta.Neg()
	}

	newBalance, err := s.applyDelta(ctx, iban, delta)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			return commons.ErrorResponse[models.BalanceResponse]("Account not found"), err
		case errors.Is(err, domain.ErrInsufficientBalance):
			return commons.ErrorResponse[models.BalanceResponse]("Insufficient balance"), err
		case errors.Is(err, domain.ErrConcurrencyExhausted):
			return commons.ErrorResponse[models.BalanceResponse]("account is busy", "Too many concurrent updates, please retry"), err
		default:
			logger.Error("transaction service apply failed", err, logger.Fields{
				"iban": iban,
			})
			return commons.ErrorResponse[models.BalanceResponse]("failed to process transaction", "Unable to process transaction right now"), err
		}
	}

	logger.Info("transaction service success", logger.Fields{
		"iban":       iban,
		"newBalance": newBalance.StringFixed(2),
	})

	return commons.SuccessResponse("transaction processed successfully", models.BalanceResponse{
		Balance: newBalance.StringFixed(2),
	}), nil
}

// applyDelta is the engine's single write path. Each round loads the current
// account, computes candidate = balance + delta in exact decimal arithmetic,
// rejects a negative candidate without writing, and commits through Save
// guarded by the version just read. A version conflict means another writer
// won that round; the loop backs off and runs again against the new state, so
// the invariant check never trusts a stale snapshot.
func (s *TransactionService) applyDelta(ctx context.Context, iban string, delta decimal.Decimal) (decimal.Decimal, error) {
	for attempt := 0; attempt < s.maxCommitAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepWithJitter(ctx, attempt); err != nil {
				return decimal.Decimal{}, err
			}
		}

		account, err := s.accountRepo.GetByIBAN(ctx, iban)
		if err != nil {
			return decimal.Decimal{}, err
		}

		candidate := account.Balance.Add(delta)
		if candidate.IsNegative() {
			return decimal.Decimal{}, domain.ErrInsufficientBalance
		}

		account.Balance = candidate
		if err := s.accountRepo.Save(ctx, account); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				logger.Info("transaction service version conflict, retrying", logger.Fields{
					"iban":    iban,
					"attempt": attempt + 1,
				})
				continue
			}
			return decimal.Decimal{}, err
		}

		return candidate, nil
	}

	logger.Error("transaction service retry budget exhausted", domain.ErrConcurrencyExhausted, logger.Fields{
		"iban":     iban,
		"attempts": s.maxCommitAttempts,
	})
	return decimal.Decimal{}, domain.ErrConcurrencyExhausted
}

// sleepWithJitter waits a random duration up to backoffBase doubled per
// attempt and capped at backoffCap, bailing out early if ctx is done.
// The exponent is clamped before shifting so a large attempt budget cannot
// overflow the Duration past the cap check.
func sleepWithJitter(ctx context.Context, attempt int) error {
	shift := attempt - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	max := backoffBase << shift
	if max > backoffCap {
		max = backoffCap
	}
	delay := time.Duration(rand.Int64N(int64(max) + 1))

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
