package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"brewtracker/internal/utils"
)

// brokerStatus reports whether the MQTT connection is up.
type brokerStatus interface {
	IsConnected() bool
}

type healthcheckerImpl struct {
	db     *sql.DB
	broker brokerStatus
}

func newHealthchecker(db *sql.DB, broker brokerStatus) *healthcheckerImpl {
	return &healthcheckerImpl{db: db, broker: broker}
}

// handleHealthz fails only on the database. MQTT is reported but optional:
// the server keeps serving history while the broker is away.
func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var ok int
	if err := h.db.QueryRowContext(r.Context(), `SELECT 1`).Scan(&ok); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	mqtt := "disabled"
	if h.broker != nil {
		mqtt = "disconnected"
		if h.broker.IsConnected() {
			mqtt = "connected"
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "mqtt": mqtt})
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB, broker brokerStatus) {
	healthchecker := newHealthchecker(db, broker)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
