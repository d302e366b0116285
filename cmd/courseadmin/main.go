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

	"github.com/google/uuid"

	"github.com/example/course-admin/internal/application"
	"github.com/example/course-admin/internal/config"
	httptransport "github.com/example/course-admin/internal/http"
	"github.com/example/course-admin/internal/logging"
	"github.com/example/course-admin/internal/persistence/sqlite"
	"github.com/example/course-admin/internal/timeutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootstrap := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.Options{Level: cfg.LogLevel, Directory: cfg.LogDir})

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to default", "timezone", cfg.Timezone, "error", err)
		location = timeutil.DefaultLocation()
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	courseRepo := sqlite.NewCourseRepository(pool)
	learnerRepo := sqlite.NewLearnerRepository(pool)
	itemRepo := sqlite.NewScheduleItemRepository(pool, location)
	sessionRepo := sqlite.NewSessionRepository(pool, location)
	enrollmentRepo := sqlite.NewEnrollmentRepository(pool, location)
	attendanceRepo := sqlite.NewAttendanceRepository(pool, location)

	courseService := application.NewCourseServiceWithLogger(courseRepo, idGenerator, now, logger)
	learnerService := application.NewLearnerServiceWithLogger(learnerRepo, idGenerator, now, logger)
	sessionService := application.NewSessionServiceWithLogger(sessionRepo, courseRepo, location, idGenerator, now, logger)
	scheduleService := application.NewScheduleServiceWithLogger(courseRepo, itemRepo, sessionService, location, idGenerator, now, logger)
	enrollmentService := application.NewEnrollmentServiceWithLogger(enrollmentRepo, courseRepo, learnerRepo, location, idGenerator, now, logger)
	attendanceService := application.NewAttendanceServiceWithLogger(attendanceRepo, enrollmentRepo, courseRepo, location, cfg.AggregateCacheTTL, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Courses:     httptransport.NewCourseHandler(courseService, logger),
		Learners:    httptransport.NewLearnerHandler(learnerService, logger),
		Schedules:   httptransport.NewScheduleHandler(scheduleService, logger),
		Sessions:    httptransport.NewSessionHandler(sessionService, logger),
		Enrollments: httptransport.NewEnrollmentHandler(enrollmentService, logger),
		Attendance:  httptransport.NewAttendanceHandler(attendanceService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireOrganization(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("course admin API listening", "addr", server.Addr, "timezone", location.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
