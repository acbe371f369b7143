package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Asaphis/AsaphisCommerce/internal/config"
	"github.com/Asaphis/AsaphisCommerce/internal/store"
	"github.com/Asaphis/AsaphisCommerce/pkg/log"
)

const healthPingTimeout = 2 * time.Second

// HTTPHandler serves the operational side-channel: the health probe and
// the informational time endpoint.
type HTTPHandler struct {
	store   store.MessageStore
	corsCfg config.CORSConfig
}

func NewHTTPHandler(messageStore store.MessageStore, corsCfg config.CORSConfig) *HTTPHandler {
	return &HTTPHandler{
		store:   messageStore,
		corsCfg: corsCfg,
	}
}

type healthResponse struct {
	OK bool `json:"ok"`
	DB bool `json:"db"`
}

type timeResponse struct {
	Now string `json:"now"`
}

// HealthCheck always answers 200. A failed or slow store ping degrades
// db to false; relay liveness is never conflated with store liveness.
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	dbOK := true
	if err := h.store.Ping(ctx); err != nil {
		dbOK = false
		logger := log.Ctx(r.Context())
		logger.Debug().Err(err).Msg("store unreachable during health check")
	}

	writeJSON(w, http.StatusOK, healthResponse{OK: true, DB: dbOK})
}

// CurrentTime returns the server time. Informational placeholder kept
// from the storefront API surface.
func (h *HTTPHandler) CurrentTime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, timeResponse{Now: time.Now().UTC().Format(time.RFC3339)})
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/health", h.cors(http.HandlerFunc(h.HealthCheck)))
	mux.Handle("/api/v1/time", h.cors(http.HandlerFunc(h.CurrentTime)))
}

// cors mirrors the storefront's allowed origin onto side-channel
// responses so the web frontend can call them directly.
func (h *HTTPHandler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", h.corsCfg.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.L()
		logger.Error().Err(err).Msg("failed to encode response")
	}
}
