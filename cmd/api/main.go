package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/config"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/approval"
	appHTTP "github.com/cmlabs-hris/boarding-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/boarding-backend-go/internal/repository/postgresql"
	approvalService "github.com/cmlabs-hris/boarding-backend-go/internal/service/approval"
	auditService "github.com/cmlabs-hris/boarding-backend-go/internal/service/audit"
	boardingService "github.com/cmlabs-hris/boarding-backend-go/internal/service/boarding"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.App.RunMigrations {
		if err := database.RunMigrations(db); err != nil {
			slog.Error("Error running migrations", "error", err)
			os.Exit(1)
		}
	}

	txManager := postgresql.NewTxManager(db)
	boardingRequestRepo := postgresql.NewBoardingRequestRepository(db)
	offerResponseRepo := postgresql.NewOfferResponseRepository(db)
	batchRepo := postgresql.NewBoardingBatchRepository(db)
	staffRepo := postgresql.NewStaffRepository(db)
	ticketRepo := postgresql.NewTicketRepository(db)
	candidateRepo := postgresql.NewCandidateRepository(db)
	templateRepo := postgresql.NewTemplateRepository(db)
	payGradeRepo := postgresql.NewPayGradeRepository(db)
	officeRepo := postgresql.NewOfficeRepository(db)
	approvalRepo := postgresql.NewApprovalRepository(db)
	delegationRepo := postgresql.NewDelegationRepository(db)
	auditRepo := postgresql.NewAuditRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiresIn)
	notifier, err := email.NewNotifier(cfg.SMTP)
	if err != nil {
		slog.Error("Error initializing email notifier", "error", err)
		os.Exit(1)
	}

	auditSvc := auditService.NewAuditService(auditRepo)

	registry := approval.NewRegistry()
	approvalSvc := approvalService.NewApprovalService(
		txManager,
		approvalRepo,
		delegationRepo,
		registry,
		auditSvc,
		approvalService.Config{DueDays: cfg.Approval.DueDays},
	)

	boardingDeps := boardingService.Dependencies{
		Tx:         txManager,
		Requests:   boardingRequestRepo,
		Responses:  offerResponseRepo,
		Batches:    batchRepo,
		Staff:      staffRepo,
		Tickets:    ticketRepo,
		Candidates: candidateRepo,
		Templates:  templateRepo,
		PayGrades:  payGradeRepo,
		Offices:    officeRepo,
		Approvals:  approvalSvc,
		Audit:      auditSvc,
		Notifier:   notifier,
	}
	boardingSvc := boardingService.NewBoardingService(boardingDeps, boardingService.Config{
		CodegenMaxAttempts: cfg.Boarding.CodegenMaxAttempts,
	})
	registry.Register(approval.KindBoardingBatch, boardingService.NewBatchApprovalHandler(boardingDeps, boardingSvc))

	router := appHTTP.NewRouter(
		cfg.App,
		JWTService,
		appHTTP.NewBoardingHandler(boardingSvc),
		appHTTP.NewApprovalHandler(approvalSvc),
		appHTTP.NewAuditHandler(auditSvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	}()

	slog.Info("Server running", "addr", "http://localhost"+server.Addr, "env", cfg.App.Env)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
