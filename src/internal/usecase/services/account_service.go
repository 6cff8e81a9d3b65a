package services

import (
	"context"
	"errors"
	"strings"

	"github.com/api-sage/bank-account-service/src/internal/adapter/http/models"
	"github.com/api-sage/bank-account-service/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-account-service/src/internal/commons"
	"github.com/api-sage/bank-account-service/src/internal/domain"
	"github.com/api-sage/bank-account-service/src/internal/logger"
	"github.com/shopspring/decimal"
)

// A fresh IBAN is re-generated and re-inserted this many times before account
// opening gives up on the unique index.
const maxIBANAttempts = 3

type AccountService struct {
	accountRepo     repo_interfaces.AccountRepository
	customerService *CustomerService
	bankCode        string
}

func NewAccountService(
	accountRepo repo_interfaces.AccountRepository,
	customerService *CustomerService,
	bankCode string,
) *AccountService {
	return &AccountService{
		accountRepo:     accountRepo,
		customerService: customerService,
		bankCode:        strings.TrimSpace(bankCode),
	}
}

func (s *AccountService) OpenAccount(ctx context.Context, req models.OpenAccountRequest) (commons.Response[models.OpenAccountResponse], error) {
	logger.Info("account service open account request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service open account validation failed", err, nil)
		return commons.ErrorResponse[models.OpenAccountResponse]("validation failed", err.Error()), err
	}

	customer, err := s.customerService.CreateCustomer(ctx, req.FirstName, req.Address, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateCustomer) {
			return commons.ErrorResponse[models.OpenAccountResponse]("Customer already exists"), err
		}
		return commons.ErrorResponse[models.OpenAccountResponse]("failed to open account", "Unable to open account right now"), err
	}

	account, err := s.insertWithFreshIBAN(ctx, customer.ID)
	if err != nil {
		logger.Error("account service open account insert failed", err, logger.Fields{
			"customerId": customer.ID,
		})
		return commons.ErrorResponse[models.OpenAccountResponse]("failed to open account", "Unable to open account right now"), err
	}

	response := models.OpenAccountResponse{
		AccountID: account.ID,
		Address:   customer.Address,
		IBAN:      account.IBAN,
	}

	logger.Info("account service open account success", logger.Fields{
		"accountId":  response.AccountID,
		"iban":       response.IBAN,
		"customerId": customer.ID,
	})

	return commons.SuccessResponse("account opened successfully", response), nil
}

func (s *AccountService) GetBalance(ctx context.Context, iban string) (commons.Response[models.BalanceResponse], error) {
	logger.Info("account service get balance request", logger.Fields{
		"iban": iban,
	})

	iban = strings.TrimSpace(iban)
	if iban == "" {
		err := errors.New("iban is required")
		return commons.ErrorResponse[models.BalanceResponse]("validation failed", err.Error()), err
	}

	account, err := s.accountRepo.GetByIBAN(ctx, iban)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.BalanceResponse]("Account not found"), err
		}
		logger.Error("account service get balance failed", err, logger.Fields{
			"iban": iban,
		})
		return commons.ErrorResponse[models.BalanceResponse]("failed to get balance", "Unable to fetch balance right now"), err
	}

	return commons.SuccessResponse("balance fetched successfully", models.BalanceResponse{
		Balance: account.Balance.StringFixed(2),
	}), nil
}

// insertWithFreshIBAN retries generation when the unique index rejects a
// collision. No version handling here: a brand new account is not a
// contention target yet.
func (s *AccountService) insertWithFreshIBAN(ctx context.Context, customerID string) (domain.Account, error) {
	for attempt := 0; attempt < maxIBANAttempts; attempt++ {
		iban, err := domain.NewIBAN(s.bankCode)
		if err != nil {
			return domain.Account{}, err
		}

		account, err := s.accountRepo.Insert(ctx, domain.Account{
			CustomerID: customerID,
			IBAN:       iban,
			Balance:    decimal.Zero,
		})
		if err == nil {
			return account, nil
		}
		if errors.Is(err, domain.ErrDuplicateAccountNumber) {
			logger.Info("account service iban collision, regenerating", logger.Fields{
				"attempt": attempt + 1,
			})
			continue
		}
		return domain.Account{}, err
	}

	return domain.Account{}, domain.ErrAccountCreationFailed
}
