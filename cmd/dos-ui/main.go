package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dos-ui/internal/config"
	"dos-ui/internal/cookie"
	"dos-ui/internal/handler"
	"dos-ui/internal/middleware"
	"dos-ui/internal/observability"
	"dos-ui/internal/oidc"
	"dos-ui/internal/repository/dynamo"
	"dos-ui/internal/secrets"
	"dos-ui/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting dos-ui server",
		slog.String("environment", cfg.Environment),
		slog.String("workspace", cfg.Workspace))

	awsCtx, awsCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer awsCancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(awsCtx)
	if err != nil {
		slog.Error("failed to load aws configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
	ssmClient := ssm.NewFromConfig(awsCfg)
	secretsClient := secretsmanager.NewFromConfig(awsCfg)

	table, err := dynamo.SessionTableName(cfg.Environment, cfg.Workspace)
	if err != nil {
		slog.Error("cannot resolve session table name", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("using session store table", slog.String("table", table))

	store := dynamo.NewSessionStore(dynamoClient, table)
	sessions := service.NewSessionManager(store, cfg.SessionTTL)

	resolver := oidc.NewResolver(
		secrets.NewParameterStore(ssmClient),
		secrets.NewSecretStore(secretsClient),
		cfg.Project, cfg.Environment, cfg.Workspace,
	)
	oidcClient := oidc.NewClient(resolver)
	authService := service.NewAuthService(sessions, oidcClient)

	cookies := cookie.NewCodec(cfg.SessionSecret, !cfg.IsLocal(), cfg.SessionTTL)

	sessionHandler := handler.NewSessionHandler(sessions, cookies)
	authHandler := handler.NewAuthHandler(authService, sessions, cookies)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.AllowedOrigins)))
	r.Use(middleware.Metrics())

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(store))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		apiLimiter := middleware.NewRateLimiter(ctx, 20, 50)
		r.Use(apiLimiter.Middleware())

		r.Get("/session", sessionHandler.Setup)
		r.Post("/session/logout", sessionHandler.Logout)
	})

	r.Route("/auth", func(r chi.Router) {
		authLimiter := middleware.NewRateLimiter(ctx, 5, 10)
		r.Use(authLimiter.Middleware())

		r.Get("/login", authHandler.Login)
		r.Get("/callback", authHandler.Callback)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("dos-ui server listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()

	slog.Info("server stopped gracefully")
}
