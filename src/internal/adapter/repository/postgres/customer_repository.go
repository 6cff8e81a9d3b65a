package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/api-sage/bank-account-service/src/internal/domain"
	"github.com/api-sage/bank-account-service/src/internal/logger"
)

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Insert(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	logger.Info("customer repository insert", logger.Fields{
		"firstName": customer.FirstName,
	})

	const query = `
INSERT INTO customers (
	first_name,
	address,
	email
) VALUES ($1, $2, $3)
RETURNING id, created_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		customer.FirstName,
		customer.Address,
		customer.Email,
	).Scan(&customer.ID, &customer.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			logger.Info("customer repository insert duplicate email", nil)
			return domain.Customer{}, domain.ErrDuplicateCustomer
		}
		logger.Error("customer repository insert failed", err, logger.Fields{
			"firstName": customer.FirstName,
		})
		return domain.Customer{}, fmt.Errorf("insert customer: %w", err)
	}

	logger.Info("customer repository insert success", logger.Fields{
		"customerId": customer.ID,
	})

	return customer, nil
}
