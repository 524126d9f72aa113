package dashboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
)

type Stats struct {
	TotalProducts   int64 `json:"totalProducts"`
	TotalCategories int64 `json:"totalCategories"`
	TotalSuppliers  int64 `json:"totalSuppliers"`
}

type Handler struct {
	db *sql.DB
}

func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.collect(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":     "error",
			"message":    "Failed to fetch dashboard stats",
			"error_type": "UpstreamError",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(stats)
}

func (h *Handler) collect(ctx context.Context) (Stats, error) {
	var stats Stats
	counts := []struct {
		query  string
		target *int64
	}{
		{`SELECT COUNT(*) FROM tbl_products`, &stats.TotalProducts},
		{`SELECT COUNT(*) FROM tbl_categories`, &stats.TotalCategories},
		{`SELECT COUNT(*) FROM tbl_suppliers`, &stats.TotalSuppliers},
	}

	for _, c := range counts {
		if err := h.db.QueryRowContext(ctx, c.query).Scan(c.target); err != nil {
			return Stats{}, fmt.Errorf("dashboard count: %w", err)
		}
	}

	return stats, nil
}
