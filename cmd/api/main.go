package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"inventory-backend/internal/app"
)

func main() {
	runtime, err := app.Build(app.Options{
		LoadDotEnv:    true,
		RunMigrations: app.EnvBoolOrDefault("RUN_MIGRATIONS_ON_STARTUP", true),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap failed: %v\n", err)
		os.Exit(1)
	}
	defer runtime.Close()

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	addr := ":" + port
	if err := http.ListenAndServe(addr, runtime.Handler); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
		os.Exit(1)
	}
}
