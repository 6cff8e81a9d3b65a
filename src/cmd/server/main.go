package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/bank-account-service/src/internal/adapter/http/controller"
	"github.com/api-sage/bank-account-service/src/internal/adapter/http/middleware"
	"github.com/api-sage/bank-account-service/src/internal/adapter/http/router"
	"github.com/api-sage/bank-account-service/src/internal/adapter/repository/postgres"
	"github.com/api-sage/bank-account-service/src/internal/config"
	"github.com/api-sage/bank-account-service/src/internal/usecase/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := postgres.RunMigrations(startupCtx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	log.Println("initial migrations completed successfully")

	db, err := postgres.Open(startupCtx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	accountRepo := postgres.NewAccountRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)

	customerService := services.NewCustomerService(customerRepo)
	accountService := services.NewAccountService(accountRepo, customerService, cfg.BankCode)
	transactionService := services.NewTransactionService(accountRepo, cfg.MaxCommitAttempts)

	accountController := controller.NewAccountController(accountService, transactionService)
	authMiddleware := middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKey, cfg.ChannelKeyHash)

	mux := router.New(accountController, authMiddleware)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve http: %v", err)
		}
	}()

	<-shutdownCtx.Done()
	log.Println("shutdown signal received, draining connections")

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer drainCancel()
	if err := server.Shutdown(drainCtx); err != nil {
		log.Printf("shutdown http server: %v", err)
	}
}
