package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/bank-account-service/src/internal/domain"
	"github.com/api-sage/bank-account-service/src/internal/logger"
	"github.com/lib/pq"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Insert(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("account repository insert", logger.Fields{
		"customerId": account.CustomerID,
		"iban":       account.IBAN,
	})

	const query = `
INSERT INTO accounts (
	customer_id,
	iban,
	balance
) VALUES ($1, $2, $3)
RETURNING id, version, created_at, updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		account.CustomerID,
		account.IBAN,
		account.Balance,
	).Scan(&account.ID, &account.Version, &account.CreatedAt, &account.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			logger.Info("account repository insert duplicate iban", logger.Fields{
				"iban": account.IBAN,
			})
			return domain.Account{}, domain.ErrDuplicateAccountNumber
		}
		logger.Error("account repository insert failed", err, logger.Fields{
			"customerId": account.CustomerID,
			"iban":       account.IBAN,
		})
		return domain.Account{}, fmt.Errorf("insert account: %w", err)
	}

	logger.Info("account repository insert success", logger.Fields{
		"accountId": account.ID,
		"iban":      account.IBAN,
	})

	return account, nil
}

func (r *AccountRepository) GetByIBAN(ctx context.Context, iban string) (domain.Account, error) {
	const query = `
SELECT id, customer_id, iban, balance, version, created_at, updated_at
FROM accounts
WHERE iban = $1`

	var account domain.Account
	if err := r.db.QueryRowContext(ctx, query, iban).Scan(
		&account.ID,
		&account.CustomerID,
		&account.IBAN,
		&account.Balance,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account repository record not found", logger.Fields{
				"iban": iban,
			})
			return domain.Account{}, domain.ErrRecordNotFound
		}
		logger.Error("account repository get failed", err, logger.Fields{
			"iban": iban,
		})
		return domain.Account{}, fmt.Errorf("get account by iban: %w", err)
	}

	return account, nil
}

// Save commits the new balance only if the stored version still equals the
// version the caller read. Zero rows affected means either the account
// vanished or another writer claimed the version first; a re-probe tells the
// two apart so the engine only retries genuine conflicts.
func (r *AccountRepository) Save(ctx context.Context, account domain.Account) error {
	const query = `
UPDATE accounts
SET balance = $2,
    version = version + 1,
    updated_at = NOW()
WHERE iban = $1
  AND version = $3`

	result, err := r.db.ExecContext(ctx, query, account.IBAN, account.Balance, account.Version)
	if err != nil {
		logger.Error("account repository save failed", err, logger.Fields{
			"iban":    account.IBAN,
			"version": account.Version,
		})
		return fmt.Errorf("save account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		logger.Error("account repository save rows affected failed", err, logger.Fields{
			"iban": account.IBAN,
		})
		return fmt.Errorf("save account rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if _, getErr := r.GetByIBAN(ctx, account.IBAN); getErr != nil {
			if errors.Is(getErr, domain.ErrRecordNotFound) {
				return domain.ErrRecordNotFound
			}
			return getErr
		}
		logger.Info("account repository save version conflict", logger.Fields{
			"iban":    account.IBAN,
			"version": account.Version,
		})
		return domain.ErrVersionConflict
	}

	logger.Info("account repository save success", logger.Fields{
		"iban":    account.IBAN,
		"version": account.Version + 1,
	})
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}
