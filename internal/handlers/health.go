package handlers

import (
	"net/http"
	"time"

	"snaptrack/internal/db"
	applog "snaptrack/internal/log"
)

type healthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Time     time.Time `json:"time"`
}

// Health is a readiness check. It reports 503 when the database does not
// answer a ping.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "health check requested", "method", r.Method)

	resp := healthResponse{Status: "ok", Database: "ok", Time: a.now().UTC()}
	status := http.StatusOK

	if err := db.Ping(r.Context(), a.store.DB()); err != nil {
		applog.Error(r.Context(), "database ping failed", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}
