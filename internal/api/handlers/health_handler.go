package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler serves liveness and readiness probes. The readiness
// pinger is optional; without one readiness mirrors liveness.
type HealthHandler struct {
	ping func(context.Context) error
}

func NewHealthHandler(ping func(context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			writeErrorStr(w, http.StatusServiceUnavailable, "database not reachable")
			return
		}
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ready"})
}
