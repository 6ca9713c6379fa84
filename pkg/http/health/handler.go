package health

import (
	"net/http"
	"strings"

	coreHealth "github.com/Sokol111/eventsink/pkg/core/health"
	"github.com/go-json-experiment/json"
	"go.uber.org/zap"
)

type healthHandler struct {
	readiness coreHealth.ReadinessChecker
	log       *zap.Logger
}

func newHealthHandler(r coreHealth.ReadinessChecker, log *zap.Logger) *healthHandler {
	return &healthHandler{readiness: r, log: log}
}

// IsReady answers 200 once every registered component is ready, 503 before.
// Clients asking for JSON get the per-component status.
func (h *healthHandler) IsReady(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		status := h.readiness.GetStatus()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode(status.Ready))
		if err := json.MarshalWrite(w, status); err != nil {
			h.log.Debug("failed to write readiness status", zap.Error(err))
		}
		return
	}

	ready := h.readiness.IsReady()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode(ready))
	if ready {
		_, _ = w.Write([]byte("ready"))
	} else {
		_, _ = w.Write([]byte("not ready"))
	}
}

func (h *healthHandler) IsLive(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}

func wantsJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == "json" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func statusCode(ready bool) int {
	if ready {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}
