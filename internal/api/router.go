package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/premik/internal/metrics"
)

// NewRouter creates the router with all API endpoints registered, plus
// /healthz and, when m is non-nil, /metrics.
func NewRouter(db *sql.DB, confirmSecret string, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	assetsHandler := &AssetsHandler{DB: db}
	subAreasHandler := &SubAreasHandler{DB: db}
	transfersHandler := &TransfersHandler{DB: db, ConfirmSecret: confirmSecret, Metrics: m}

	// Assets.
	mux.HandleFunc("GET /api/assets", assetsHandler.List)
	mux.HandleFunc("POST /api/assets", assetsHandler.Create)
	mux.HandleFunc("GET /api/assets/{id}", assetsHandler.Get)
	mux.HandleFunc("PUT /api/assets/{id}", assetsHandler.Update)
	mux.HandleFunc("DELETE /api/assets/{id}", assetsHandler.Delete)
	mux.HandleFunc("GET /api/assets/{id}/history", assetsHandler.History)

	// Sub-areas.
	mux.HandleFunc("GET /api/subareas", subAreasHandler.List)
	mux.HandleFunc("POST /api/subareas", subAreasHandler.Create)
	mux.HandleFunc("GET /api/subareas/{id}", subAreasHandler.Get)
	mux.HandleFunc("PUT /api/subareas/{id}", subAreasHandler.Update)
	mux.HandleFunc("DELETE /api/subareas/{id}", subAreasHandler.Delete)

	// Transfers.
	mux.HandleFunc("GET /api/transfers", transfersHandler.List)
	mux.HandleFunc("POST /api/transfers", transfersHandler.Create)
	mux.HandleFunc("GET /api/transfers/{id}", transfersHandler.Get)
	mux.HandleFunc("PUT /api/transfers/{id}", transfersHandler.Update)
	mux.HandleFunc("POST /api/transfers/{id}/items", transfersHandler.Attach)
	mux.HandleFunc("DELETE /api/transfers/{id}/items/{itemID}", transfersHandler.Detach)
	mux.HandleFunc("POST /api/transfers/{id}/preview", transfersHandler.Preview)
	mux.HandleFunc("POST /api/transfers/{id}/submit", transfersHandler.Submit)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	return mux
}
