package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/api-sage/bank-account-service/src/internal/domain"
)

type CustomerRepository struct {
	mu       sync.Mutex
	byEmail  map[string]domain.Customer
	sequence int
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{byEmail: make(map[string]domain.Customer)}
}

func (r *CustomerRepository) Insert(_ context.Context, customer domain.Customer) (domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(customer.Email))
	if _, exists := r.byEmail[key]; exists {
		return domain.Customer{}, domain.ErrDuplicateCustomer
	}

	r.sequence++
	customer.ID = fmt.Sprintf("cus-%d", r.sequence)
	customer.CreatedAt = time.Now().UTC()
	r.byEmail[key] = customer

	return customer, nil
}
