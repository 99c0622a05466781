package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/boarding-backend-go/internal/config"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/boarding-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	cfg config.AppConfig,
	JWTService jwt.Service,
	boardingHandler BoardingHandler,
	approvalHandler ApprovalHandler,
	auditHandler AuditHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "boarding-cmlabs"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/boarding", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(auth.PermissionBoardingView))
					r.Get("/", boardingHandler.List)
					r.Get("/{id}", boardingHandler.Get)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(auth.PermissionAuditView))
					r.Get("/{id}/audit", auditHandler.ForEntity(audit.EntityBoardingRequest))
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(auth.PermissionBoardingManage))
					r.With(chiMiddleware.AllowContentType("application/json")).Post("/offers", boardingHandler.IssueOffers)
					r.Post("/offers/import", boardingHandler.ImportOffers)
					r.Post("/{id}/responses", boardingHandler.RecordResponse)
					r.Post("/{id}/cancel", boardingHandler.Cancel)
					r.Post("/{id}/board", boardingHandler.Board)
					r.Post("/board", boardingHandler.BulkBoard)
					r.Post("/batches", boardingHandler.SubmitBatch)
					r.Post("/batches/{id}/complete", boardingHandler.CompleteBatch)
				})
			})

			r.Route("/approvals", func(r chi.Router) {
				// Open to any authenticated actor; the engine checks approver rights.
				r.Get("/inbox", approvalHandler.Inbox)
				r.Get("/delegated", approvalHandler.Delegated)
				r.Get("/{id}", approvalHandler.Get)
				r.Get("/{id}/history", approvalHandler.History)
				r.Post("/{id}/comments", approvalHandler.Comment)
				r.Post("/{id}/cancel", approvalHandler.Cancel)
				r.Post("/delegations", approvalHandler.GrantDelegation)
				r.Delete("/delegations/{id}", approvalHandler.RevokeDelegation)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(auth.PermissionApprovalDecide))
					r.Post("/{id}/approve", approvalHandler.Approve)
					r.Post("/{id}/reject", approvalHandler.Reject)
					r.Post("/{id}/escalate", approvalHandler.Escalate)
					r.Post("/bulk-approve", approvalHandler.BulkApprove)
					r.Post("/bulk-reject", approvalHandler.BulkReject)
				})

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/{id}/reassign", approvalHandler.Reassign)
				})
			})

			r.Route("/audit", func(r chi.Router) {
				r.Use(middleware.RequirePermission(auth.PermissionAuditView))
				r.Get("/{entityType}/{id}", auditHandler.List)
				r.Get("/{entityType}/{id}/replay", auditHandler.Replay)
			})
		})
	})

	return r
}
