package api

import (
	"encoding/json"
	"net/http"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"inventory-backend/internal/app"
)

var (
	initOnce   sync.Once
	apiRuntime *app.Runtime
	initErr    error
)

// Handler is the serverless entrypoint; the runtime is built once per
// instance and reused across invocations.
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(func() {
		apiRuntime, initErr = app.Build(app.Options{
			LoadDotEnv:    false,
			RunMigrations: app.EnvBoolOrDefault("RUN_MIGRATIONS_ON_STARTUP", false),
		})
	})

	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "error",
			"message": "application bootstrap failed",
		})
		return
	}

	apiRuntime.Handler.ServeHTTP(w, r)
}
