package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	JWTService jwt.Service,
	cfg *config.Config,
	periodHandler PeriodHandler,
	attendanceHandler AttendanceHandler,
	overrideHandler OverrideHandler,
	reconciliationHandler ReconciliationHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1/attendance", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired)
		r.Use(middleware.RequireCompany)

		// Reads
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(user.PermissionAttendanceViewAll))

			r.Get("/periods/{month}", periodHandler.Get)
			r.Get("/days", attendanceHandler.List)
			r.Get("/days/{employee_id}/{date}", attendanceHandler.Get)
			r.Get("/overrides/{month}/{employee_id}", overrideHandler.Get)

			r.Get("/reconciliation/{month}", reconciliationHandler.View)
			r.Get("/reconciliation/{month}/export", reconciliationHandler.Export)
			r.Get("/reconciliation/{month}/{employee_id}", reconciliationHandler.GetEmployee)
		})

		// Writes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(user.PermissionAttendanceManage))

			r.Post("/periods/{month}/generate", periodHandler.Generate)
			r.Post("/periods/{month}/freeze", periodHandler.Freeze)
			r.Post("/periods/{month}/unfreeze", periodHandler.Unfreeze)
			r.Post("/periods/{month}/recompute", periodHandler.Recompute)
			r.Post("/periods/{month}/mark-weekdays-present", periodHandler.MarkWeekdaysPresent)

			r.Patch("/days/{employee_id}/{date}", attendanceHandler.Update)
			r.Put("/days/{employee_id}/{date}/sync", attendanceHandler.Sync)

			r.Put("/overrides/{month}/{employee_id}", overrideHandler.Upsert)
			r.Delete("/overrides/{month}/{employee_id}", overrideHandler.Clear)
		})
	})

	return r
}
