package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/batch"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
	overrideService "github.com/cmlabs-hris/hris-attendance-go/internal/service/override"
	periodService "github.com/cmlabs-hris/hris-attendance-go/internal/service/period"
	reconciliationService "github.com/cmlabs-hris/hris-attendance-go/internal/service/reconciliation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).With(
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
	))

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	txManager := postgresql.NewTxManager(db)

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	periodRepo := postgresql.NewPeriodRepository(db)
	overrideRepo := postgresql.NewOverrideRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	leaveTypeRepo := postgresql.NewLeaveTypeRepository(db)
	scheduleRepo := postgresql.NewScheduleRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	batchOpts := batch.Options{
		ChunkSize:   cfg.Attendance.BatchChunkSize,
		Workers:     cfg.Attendance.BatchWorkers,
		MaxAttempts: cfg.Attendance.BatchMaxAttempts,
		Backoff:     cfg.Attendance.BatchBackoff,
	}

	periodSvc := periodService.NewPeriodService(
		txManager,
		periodRepo,
		attendanceRepo,
		employeeRepo,
		scheduleRepo,
		batchOpts,
	)
	attendanceSvc := attendanceService.NewAttendanceService(
		txManager,
		attendanceRepo,
		periodRepo,
		employeeRepo,
		scheduleRepo,
		leaveTypeRepo,
	)
	overrideSvc := overrideService.NewOverrideService(overrideRepo, employeeRepo)
	reconciliationSvc := reconciliationService.NewReconciliationService(
		attendanceRepo,
		periodRepo,
		overrideRepo,
		employeeRepo,
		leaveTypeRepo,
	)

	periodHandler := appHTTP.NewPeriodHandler(periodSvc)
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	overrideHandler := appHTTP.NewOverrideHandler(overrideSvc)
	reconciliationHandler := appHTTP.NewReconciliationHandler(reconciliationSvc)

	router := appHTTP.NewRouter(
		JWTService,
		cfg,
		periodHandler,
		attendanceHandler,
		overrideHandler,
		reconciliationHandler,
	)

	scheduler := cron.NewScheduler()
	if cfg.Attendance.AutoGenerate {
		attendanceJobs := cron.NewAttendanceJobs(employeeRepo, periodSvc, cfg.Attendance.GenerateInterval)
		attendanceJobs.RegisterJobs(scheduler)
	}
	scheduler.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
}
