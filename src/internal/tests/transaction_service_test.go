package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/api-sage/bank-account-service/src/internal/adapter/http/models"
	"github.com/api-sage/bank-account-service/src/internal/adapter/repository/memory"
	"github.com/api-sage/bank-account-service/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-account-service/src/internal/domain"
	"github.com/api-sage/bank-account-service/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func openTestAccount(t *testing.T, repo *memory.AccountRepository) domain.Account {
	t.Helper()

	iban, err := domain.NewIBAN("GRYB")
	if err != nil {
		t.Fatalf("generate iban: %v", err)
	}
	account, err := repo.Insert(context.Background(), domain.Account{
		CustomerID: "cus-1",
		IBAN:       iban,
		Balance:    decimal.Zero,
	})
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}
	return account
}

func TestTransactionServiceDepositWithdrawScenario(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransactionService(repo, 5)
	account := openTestAccount(t, repo)
	ctx := context.Background()

	response, err := svc.Deposit(ctx, account.IBAN, models.TransactionRequest{Amount: "500.00"})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if response.Data.Balance != "500.00" {
		t.Fatalf("expected 500.00 after deposit, got %s", response.Data.Balance)
	}

	response, err = svc.Withdraw(ctx, account.IBAN, models.TransactionRequest{Amount: "500.00"})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if response.Data.Balance != "0.00" {
		t.Fatalf("expected 0.00 after withdrawal, got %s", response.Data.Balance)
	}

	response, err = svc.Withdraw(ctx, account.IBAN, models.TransactionRequest{Amount: "0.01"})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if response.Message != "Insufficient balance" {
		t.Fatalf("unexpected message %q", response.Message)
	}

	stored, err := repo.GetByIBAN(ctx, account.IBAN)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !stored.Balance.Equal(decimal.Zero) {
		t.Fatalf("failed withdrawal must not change balance, got %s", stored.Balance)
	}
	if stored.Version != 2 {
		t.Fatalf("expected exactly 2 commits, version is %d", stored.Version)
	}
}

func TestTransactionServiceWithdrawMoreThanBalance(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransactionService(repo, 5)
	account := openTestAccount(t, repo)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, account.IBAN, models.TransactionRequest{Amount: "1000"}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if _, err := svc.Withdraw(ctx, account.IBAN, models.TransactionRequest{Amount: "2000"}); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	stored, err := repo.GetByIBAN(ctx, account.IBAN)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !stored.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected balance unchanged at 1000, got %s", stored.Balance)
	}
}

func TestTransactionServiceAccountNotFound(t *testing.T) {
	svc := services.NewTransactionService(memory.NewAccountRepository(), 5)

	response, err := svc.Deposit(context.Background(), "NL02GRYB0000000001", models.TransactionRequest{Amount: "10"})
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if response.Message != "Account not found" {
		t.Fatalf("unexpected message %q", response.Message)
	}
}

func TestTransactionServiceValidationErrors(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransactionService(repo, 5)
	account := openTestAccount(t, repo)
	ctx := context.Background()

	for _, amount := range []string{"", "abc", "0", "-5"} {
		if _, err := svc.Deposit(ctx, account.IBAN, models.TransactionRequest{Amount: amount}); err == nil {
			t.Fatalf("expected validation error for amount %q", amount)
		}
	}

	if _, err := svc.Withdraw(ctx, " ", models.TransactionRequest{Amount: "10"}); err == nil {
		t.Fatal("expected validation error for blank iban")
	}

	stored, err := repo.GetByIBAN(ctx, account.IBAN)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if stored.Version != 0 {
		t.Fatalf("rejected requests must not write, version is %d", stored.Version)
	}
}

func TestTransactionServiceConcurrentDeposits(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransactionService(repo, 10)
	account := openTestAccount(t, repo)
	ctx := context.Background()

	var g errgroup.Group
	for _, amount := range []string{"100.00", "200.00"} {
		g.Go(func() error {
			_, err := svc.Deposit(ctx, account.IBAN, models.TransactionRequest{Amount: amount})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent deposits: %v", err)
	}

	stored, err := repo.GetByIBAN(ctx, account.IBAN)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !stored.Balance.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected 300.00 regardless of commit order, got %s", stored.Balance)
	}
	if stored.Version != 2 {
		t.Fatalf("expected version advanced by exactly 2, got %d", stored.Version)
	}
}

func TestTransactionServiceConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	const workers = 8

	repo := memory.NewAccountRepository()
	svc := services.NewTransactionService(repo, 25)
	account := openTestAccount(t, repo)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, account.IBAN, models.TransactionRequest{Amount: "800.00"}); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := svc.Withdraw(ctx, account.IBAN, models.TransactionRequest{Amount: "100.00"})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent withdrawals: %v", err)
	}

	stored, err := repo.GetByIBAN(ctx, account.IBAN)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !stored.Balance.Equal(decimal.Zero) {
		t.Fatalf("expected all withdrawals to drain the account to 0.00, got %s", stored.Balance)
	}
	if stored.Balance.IsNegative() {
		t.Fatal("balance went negative under concurrency")
	}
	if stored.Version != workers+1 {
		t.Fatalf("expected %d commits, version is %d", workers+1, stored.Version)
	}

	if _, err := svc.Withdraw(ctx, account.IBAN, models.TransactionRequest{Amount: "0.01"}); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance on the drained account, got %v", err)
	}
}

func TestTransactionServiceMixedConcurrentTraffic(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransactionService(repo, 25)
	account := openTestAccount(t, repo)
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, account.IBAN, models.TransactionRequest{Amount: "500.00"}); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := svc.Deposit(ctx, account.IBAN, models.TransactionRequest{Amount: "25.00"})
			return err
		})
		g.Go(func() error {
			_, err := svc.Withdraw(ctx, account.IBAN, models.TransactionRequest{Amount: "25.00"})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("mixed traffic: %v", err)
	}

	stored, err := repo.GetByIBAN(ctx, account.IBAN)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !stored.Balance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("final balance must equal the sum of signed amounts, got %s", stored.Balance)
	}
}

// conflictingAccountRepository forces a fixed number of version conflicts
// before delegating, simulating competing writers without goroutines.
type conflictingAccountRepository struct {
	repo_interfaces.AccountRepository

	mu        sync.Mutex
	conflicts int
}

func (r *conflictingAccountRepository) Save(ctx context.Context, account domain.Account) error {
	r.mu.Lock()
	inject := r.conflicts > 0
	if inject {
		r.conflicts--
	}
	r.mu.Unlock()

	if inject {
		return domain.ErrVersionConflict
	}
	return r.AccountRepository.Save(ctx, account)
}

func TestTransactionServiceRetriesVersionConflicts(t *testing.T) {
	inner := memory.NewAccountRepository()
	repo := &conflictingAccountRepository{AccountRepository: inner, conflicts: 2}
	svc := services.NewTransactionService(repo, 5)
	account := openTestAccount(t, inner)

	response, err := svc.Deposit(context.Background(), account.IBAN, models.TransactionRequest{Amount: "42.00"})
	if err != nil {
		t.Fatalf("deposit should survive transient conflicts: %v", err)
	}
	if response.Data.Balance != "42.00" {
		t.Fatalf("expected 42.00, got %s", response.Data.Balance)
	}

	stored, err := inner.GetByIBAN(context.Background(), account.IBAN)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if stored.Version != 1 {
		t.Fatalf("expected a single committed write, version is %d", stored.Version)
	}
}

func TestTransactionServiceConcurrencyExhausted(t *testing.T) {
	inner := memory.NewAccountRepository()
	repo := &conflictingAccountRepository{AccountRepository: inner, conflicts: 1 << 30}
	svc := services.NewTransactionService(repo, 3)
	account := openTestAccount(t, inner)

	response, err := svc.Deposit(context.Background(), account.IBAN, models.TransactionRequest{Amount: "10.00"})
	if !errors.Is(err, domain.ErrConcurrencyExhausted) {
		t.Fatalf("expected ErrConcurrencyExhausted, got %v", err)
	}
	if response.Success {
		t.Fatal("expected failure response")
	}

	stored, err := inner.GetByIBAN(context.Background(), account.IBAN)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if stored.Version != 0 || !stored.Balance.Equal(decimal.Zero) {
		t.Fatalf("exhausted retries must leave no writes, version=%d balance=%s", stored.Version, stored.Balance)
	}
}

func TestTransactionServiceLargeAttemptBudgetExhaustsCleanly(t *testing.T) {
	inner := memory.NewAccountRepository()
	repo := &conflictingAccountRepository{AccountRepository: inner, conflicts: 1 << 30}
	svc := services.NewTransactionService(repo, 50)
	account := openTestAccount(t, inner)

	// Attempt counts past the backoff doubling range must still terminate
	// in the exhaustion error rather than overflowing the delay.
	_, err := svc.Deposit(context.Background(), account.IBAN, models.TransactionRequest{Amount: "10.00"})
	if !errors.Is(err, domain.ErrConcurrencyExhausted) {
		t.Fatalf("expected ErrConcurrencyExhausted, got %v", err)
	}

	stored, err := inner.GetByIBAN(context.Background(), account.IBAN)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if stored.Version != 0 || !stored.Balance.Equal(decimal.Zero) {
		t.Fatalf("exhausted retries must leave no writes, version=%d balance=%s", stored.Version, stored.Balance)
	}
}

func TestTransactionServiceSequentialSumsExactly(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransactionService(repo, 5)
	account := openTestAccount(t, repo)
	ctx := context.Background()

	expected := decimal.Zero
	for i := 1; i <= 20; i++ {
		amount := decimal.NewFromInt(int64(i)).Div(decimal.NewFromInt(4))
		if _, err := svc.Deposit(ctx, account.IBAN, models.TransactionRequest{Amount: amount.String()}); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
		expected = expected.Add(amount)
	}

	stored, err := repo.GetByIBAN(ctx, account.IBAN)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !stored.Balance.Equal(expected) {
		t.Fatalf("expected exact sum %s, got %s", expected, stored.Balance)
	}
	if stored.Balance.IsNegative() {
		t.Fatal("balance must never be negative")
	}
}

func TestTransactionServiceFormatsBalanceWithTwoDecimals(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransactionService(repo, 5)
	account := openTestAccount(t, repo)

	response, err := svc.Deposit(context.Background(), account.IBAN, models.TransactionRequest{Amount: "7"})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if response.Data.Balance != "7.00" {
		t.Fatalf("expected 7.00, got %s", response.Data.Balance)
	}
}
