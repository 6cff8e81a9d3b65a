package services

import (
	"context"
	"strings"

	"github.com/api-sage/bank-account-service/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-account-service/src/internal/domain"
	"github.com/api-sage/bank-account-service/src/internal/logger"
)

// CustomerService is the customer collaborator consumed by account opening.
// It owns customer persistence and its uniqueness constraint; account code
// only ever sees the resulting customer id.
type CustomerService struct {
	customerRepo repo_interfaces.CustomerRepository
}

func NewCustomerService(customerRepo repo_interfaces.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, firstName, address, email string) (domain.Customer, error) {
	logger.Info("customer service create customer request", logger.Fields{
		"firstName": firstName,
	})

	customer, err := s.customerRepo.Insert(ctx, domain.Customer{
		FirstName: strings.TrimSpace(firstName),
		Address:   strings.TrimSpace(address),
		Email:     strings.TrimSpace(email),
	})
	if err != nil {
		logger.Error("customer service create customer failed", err, logger.Fields{
			"firstName": firstName,
		})
		return domain.Customer{}, err
	}

	logger.Info("customer service create customer success", logger.Fields{
		"customerId": customer.ID,
	})

	return customer, nil
}
