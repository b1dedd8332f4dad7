package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strconv"
	"syscall"
	"time"

	"github.com/causewayhq/causeway"
	"github.com/causewayhq/causeway/api"
	"github.com/causewayhq/causeway/baseapi"
	"github.com/causewayhq/causeway/db"
	"github.com/causewayhq/causeway/email"
	"github.com/causewayhq/causeway/integrations/prometheus"
	"github.com/causewayhq/causeway/internal/config"
	"github.com/causewayhq/causeway/internal/secrets"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/riandyrn/otelchi"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var MigrateOnStart = config.GenFlag("server.migrate_on_start", true, "Run pending database migrations on startup")

func Serve(c *cli.Context) error {
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	if err := config.Load(c.String("config")); err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	config.SetFlagsPath(c.String("flags"))
	if err := config.LoadFlags(ctx, false); err != nil {
		return fmt.Errorf("could not load flags: %w", err)
	}

	debug := config.C.Common.Debug
	slog.SetDefault(slog.New(causeway.GetSlogHandler(debug, os.Stdout)))

	slog.InfoContext(ctx, "Starting Causeway", slog.String("version", causeway.Version))
	if debug {
		slog.WarnContext(ctx, "Debug mode activated")
	}

	logDir := config.C.Common.LogDir
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("could not create log dir: %w", err)
	}
	accessLog := log.New(&lumberjack.Logger{
		Filename: path.Join(logDir, "access.log"),
	}, "", 0)

	dbc, err := db.NewPSQL(ctx, config.C.Database.String())
	if err != nil {
		return fmt.Errorf("could not connect to DB: %w", err)
	}
	slog.InfoContext(ctx, "Connected to DB")

	if MigrateOnStart.Value() {
		if err := dbc.RunMigrations(ctx); err != nil {
			return fmt.Errorf("could not run migrations: %w", err)
		}
	}

	mailer, err := email.NewMailer()
	if err != nil {
		slog.WarnContext(ctx, "Could not initialize mailer, receipts are disabled", slog.Any("err", err))
		mailer = nil
	}

	src, err := secrets.NewSource()
	if err != nil {
		return err
	}

	base := baseapi.New(dbc, mailer, src)
	base.Start(ctx)
	defer base.Close()

	r := chi.NewRouter()

	corsConfig := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(corsConfig.Handler)

	r.Use(middleware.RealIP)
	r.Use(otelchi.Middleware("causeway", otelchi.WithChiRoutes(r)))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  accessLog,
		NoColor: true,
	}))

	r.Mount("/api", api.New(base).Handler())

	prometheus.InitMetrics()

	server := &http.Server{
		Addr:    net.JoinHostPort(config.C.Common.Host, strconv.Itoa(config.C.Common.Port)),
		Handler: r,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "Server error", slog.Any("err", err))
			cancel()
		}
	}()

	slog.InfoContext(ctx, "Successfully started", slog.String("addr", server.Addr))
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		signal.Stop(stop)
	case <-ctx.Done():
	}

	slog.InfoContext(ctx, "Shutting down")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := server.Shutdown(shutCtx); err != nil {
		slog.WarnContext(ctx, "Could not shut down cleanly", slog.Any("err", err))
	}

	if err := config.SaveFlags(context.Background()); err != nil {
		slog.WarnContext(ctx, "Could not persist flags", slog.Any("err", err))
	}

	return nil
}
