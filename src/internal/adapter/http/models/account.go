package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type OpenAccountRequest struct {
	FirstName string `json:"firstName"`
	Address   string `json:"address"`
	Email     string `json:"emailAddress"`
}

func (r OpenAccountRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.FirstName) == "" {
		errs = append(errs, "firstName is required")
	}

	if strings.TrimSpace(r.Address) == "" {
		errs = append(errs, "address is required")
	}

	email := strings.TrimSpace(r.Email)
	if email == "" {
		errs = append(errs, "emailAddress is required")
	} else if !looksLikeEmail(email) {
		errs = append(errs, "emailAddress must be a valid email address")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

type OpenAccountResponse struct {
	AccountID string `json:"accountId"`
	Address   string `json:"address"`
	IBAN      string `json:"iban"`
}

type TransactionRequest struct {
	Amount string `json:"amount"`
}

// Amount must be a strictly positive decimal; the sign of the operation is
// chosen by the endpoint, never by the caller.
func (r TransactionRequest) Validate() error {
	var errs []string

	amount := strings.TrimSpace(r.Amount)
	if amount == "" {
		errs = append(errs, "amount is required")
	} else {
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			errs = append(errs, "amount must be numeric")
		} else if parsed.LessThanOrEqual(decimal.Zero) {
			errs = append(errs, "amount must be greater than zero")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type BalanceResponse struct {
	Balance string `json:"balance"`
}

func looksLikeEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.Contains(domain, "@") {
		return false
	}
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
