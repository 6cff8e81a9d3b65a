package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/api-sage/bank-account-service/src/internal/adapter/http/models"
	"github.com/api-sage/bank-account-service/src/internal/commons"
	"github.com/api-sage/bank-account-service/src/internal/domain"
	"github.com/api-sage/bank-account-service/src/internal/logger"
)

type AccountService interface {
	OpenAccount(ctx context.Context, req models.OpenAccountRequest) (commons.Response[models.OpenAccountResponse], error)
	GetBalance(ctx context.Context, iban string) (commons.Response[models.BalanceResponse], error)
}

type TransactionService interface {
	Deposit(ctx context.Context, iban string, req models.TransactionRequest) (commons.Response[models.BalanceResponse], error)
	Withdraw(ctx context.Context, iban string, req models.TransactionRequest) (commons.Response[models.BalanceResponse], error)
}

type AccountController struct {
	accountService     AccountService
	transactionService TransactionService
}

func NewAccountController(accountService AccountService, transactionService TransactionService) *AccountController {
	return &AccountController{
		accountService:     accountService,
		transactionService: transactionService,
	}
}

func (c *AccountController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	openHandler := http.HandlerFunc(c.openAccount)
	accountHandler := http.HandlerFunc(c.accountSubroute)
	if authMiddleware != nil {
		openHandler = authMiddleware(openHandler).ServeHTTP
		accountHandler = authMiddleware(accountHandler).ServeHTTP
	}
	mux.Handle("/accounts", http.HandlerFunc(openHandler))
	mux.Handle("/accounts/", http.HandlerFunc(accountHandler))
}

func (c *AccountController) openAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	if r.Method != http.MethodPost {
		response := commons.ErrorResponse[models.OpenAccountResponse]("method not allowed")
		writeJSON(w, http.StatusMethodNotAllowed, response)
		logResponse(r, http.StatusMethodNotAllowed, response, start)
		return
	}

	var req models.OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.OpenAccountResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.accountService.OpenAccount(r.Context(), req)
	if err != nil {
		status := statusForError(err, response.Message)
		logError(r, err, logger.Fields{"message": response.Message})
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

// accountSubroute dispatches /accounts/{iban}/balance, /accounts/{iban}/deposit
// and /accounts/{iban}/withdraw.
func (c *AccountController) accountSubroute(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) != 3 || segments[0] != "accounts" || segments[1] == "" {
		response := commons.ErrorResponse[models.BalanceResponse]("not found")
		writeJSON(w, http.StatusNotFound, response)
		return
	}

	iban := segments[1]
	switch segments[2] {
	case "balance":
		c.getBalance(w, r, iban)
	case "deposit":
		c.transact(w, r, iban, c.transactionService.Deposit)
	case "withdraw":
		c.transact(w, r, iban, c.transactionService.Withdraw)
	default:
		response := commons.ErrorResponse[models.BalanceResponse]("not found")
		writeJSON(w, http.StatusNotFound, response)
	}
}

func (c *AccountController) getBalance(w http.ResponseWriter, r *http.Request, iban string) {
	start := time.Now()
	logRequest(r, nil)

	if r.Method != http.MethodGet {
		response := commons.ErrorResponse[models.BalanceResponse]("method not allowed")
		writeJSON(w, http.StatusMethodNotAllowed, response)
		logResponse(r, http.StatusMethodNotAllowed, response, start)
		return
	}

	response, err := c.accountService.GetBalance(r.Context(), iban)
	if err != nil {
		status := statusForError(err, response.Message)
		logError(r, err, logger.Fields{"message": response.Message})
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *AccountController) transact(
	w http.ResponseWriter,
	r *http.Request,
	iban string,
	apply func(ctx context.Context, iban string, req models.TransactionRequest) (commons.Response[models.BalanceResponse], error),
) {
	start := time.Now()
	logRequest(r, nil)

	if r.Method != http.MethodPost {
		response := commons.ErrorResponse[models.BalanceResponse]("method not allowed")
		writeJSON(w, http.StatusMethodNotAllowed, response)
		logResponse(r, http.StatusMethodNotAllowed, response, start)
		return
	}

	var req models.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.BalanceResponse]("invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := apply(r.Context(), iban, req)
	if err != nil {
		status := statusForError(err, response.Message)
		logError(r, err, logger.Fields{"message": response.Message})
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

// statusForError translates the domain error taxonomy into HTTP statuses.
// Contention exhaustion maps to 503 so callers see a retryable signal,
// distinct from the 400 a business rejection produces. Validation failures
// carry no sentinel; they are recognized by the response message the
// services set, never by inspecting error text.
func statusForError(err error, message string) int {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrDuplicateCustomer),
		errors.Is(err, domain.ErrAccountCreationFailed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConcurrencyExhausted):
		return http.StatusServiceUnavailable
	default:
		if message == "validation failed" {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
