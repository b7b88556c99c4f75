package api

import (
	"context"
	"net/http"
	"time"

	"warehouse-be/internal/logger"
	"warehouse-be/internal/utils"

	"go.uber.org/zap"
)

const readyTimeout = 2 * time.Second

type opsHandler struct {
	appName string
	db      Pinger
}

type readiness struct {
	Status    string `json:"status"`
	DB        string `json:"db"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *opsHandler) live(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "app": h.appName})
}

func (h *opsHandler) ready(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		utils.WriteJSON(w, http.StatusServiceUnavailable, readiness{
			Status: "error", DB: "down", Detail: "database not configured",
			RequestID: logger.RequestIDFrom(r.Context()),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.FromCtx(r.Context()).Warn("readiness check failed", zap.Error(err))
		utils.WriteJSON(w, http.StatusServiceUnavailable, readiness{
			Status: "error", DB: "down", Detail: "database unavailable",
			RequestID: logger.RequestIDFrom(r.Context()),
		})
		return
	}
	utils.WriteJSON(w, http.StatusOK, readiness{Status: "ok", DB: "up"})
}
