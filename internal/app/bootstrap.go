package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"inventory-backend/internal/auth"
	"inventory-backend/internal/category"
	"inventory-backend/internal/dashboard"
	"inventory-backend/internal/db"
	"inventory-backend/internal/email"
	"inventory-backend/internal/media"
	"inventory-backend/internal/observability"
	"inventory-backend/internal/product"
	"inventory-backend/internal/supplier"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

// Build wires the whole service from environment config. Both the server
// and the serverless entrypoints go through here.
func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger(observability.ParseLevel(os.Getenv("LOG_LEVEL")))

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cloudinaryURL, err := mustEnv("CLOUDINARY_URL")
	if err != nil {
		return nil, err
	}

	flushSentry, err := observability.SetupSentry(observability.SentryConfig{
		DSN:         os.Getenv("SENTRY_DSN"),
		Environment: envOrDefault("APP_ENV", "development"),
		Release:     os.Getenv("APP_RELEASE"),
	})
	if err != nil {
		// Error reporting is best effort; the service still starts.
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(context.Background(), database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret:     []byte(jwtSecret),
		AccessTTL:  envHoursOrDefault("ACCESS_TOKEN_TTL_HOURS", 24),
		RefreshTTL: envHoursOrDefault("REFRESH_TOKEN_TTL_HOURS", 168),
	})

	mailer := email.NewSMTPSender(email.Config{
		Host:    os.Getenv("SMTP_HOST"),
		Port:    envIntOrDefault("SMTP_PORT", 587),
		From:    os.Getenv("SMTP_FROM"),
		User:    os.Getenv("SMTP_USER"),
		Pass:    os.Getenv("SMTP_PASS"),
		TLSMode: envOrDefault("SMTP_TLS_MODE", "auto"),
	})

	authRepo := auth.NewRepository(database)
	if err := authRepo.ApplySecuritySettings(context.Background(),
		envIntOrDefault("LOGIN_MAX_ATTEMPTS", 5),
		envMinutesOrDefault("LOGIN_LOCK_MINUTES", 15),
		envMinutesOrDefault("OTP_TTL_MINUTES", 10),
	); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("apply security settings: %w", err)
	}

	authService := auth.NewService(authRepo, tokens, mailer, logger)
	authHandler := auth.NewHandler(authService, authRepo, logger)
	gate := auth.NewGate(tokens)

	cloudinaryClient, err := media.NewCloudinary(cloudinaryURL, envOrDefault("CLOUDINARY_FOLDER", "products"))
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	uploadHandler := media.NewHandler(cloudinaryClient, logger)

	productHandler := product.NewHandler(product.NewRepository(database))
	categoryHandler := category.NewHandler(category.NewRepository(database))
	supplierHandler := supplier.NewHandler(supplier.NewRepository(database))
	dashboardHandler := dashboard.NewHandler(database)

	r := chi.NewRouter()
	r.Use(observability.RecoverMiddleware(logger))
	r.Use(observability.RequestLoggingMiddleware(logger))
	r.Use(gate.Middleware)

	r.Get("/health", healthHandler(database))

	r.Route("/api", func(r chi.Router) {
		// Allow-listed in the gate.
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/token/refresh", authHandler.Refresh)
		r.Post("/send-otp", authHandler.SendOTP)
		r.Post("/reset-password", authHandler.ResetPassword)

		// Everything below requires a valid access token.
		r.Get("/users", authHandler.ListUsers)
		r.Get("/dashboard/stats", dashboardHandler.Stats)

		r.Get("/products", productHandler.List)
		r.Get("/products/search", productHandler.Search)
		r.Post("/products", productHandler.Create)
		r.Put("/products/{id}", productHandler.Update)
		r.Delete("/products/{id}", productHandler.Delete)

		r.Get("/categories", categoryHandler.List)
		r.Post("/categories", categoryHandler.Create)
		r.Put("/categories/{id}", categoryHandler.Update)
		r.Delete("/categories/{id}", categoryHandler.Delete)
		r.Get("/category-connections", categoryHandler.Connections)

		r.Get("/suppliers", supplierHandler.List)
		r.Post("/suppliers", supplierHandler.Create)
		r.Put("/suppliers/{id}", supplierHandler.Update)
		r.Delete("/suppliers/{id}", supplierHandler.Delete)

		r.Post("/media/upload", uploadHandler.Upload)
	})

	return &Runtime{
		Handler: r,
		Close: func() error {
			flushSentry()
			return database.Close()
		},
	}, nil
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
