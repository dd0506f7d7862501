package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/okovalenko/uniconnect/internal/observability"
)

type HealthHandler struct {
	ping func() error
	sync *observability.SyncMetrics
}

// ping checks the durable backend; sync exposes mirror worker counters.
// Both are optional.
func NewHealthHandler(ping func() error, sync *observability.SyncMetrics) *HealthHandler {
	return &HealthHandler{ping: ping, sync: sync}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.ping != nil {
		err := h.ping()

		if err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}

	body := gin.H{"status": "ready"}

	if h.sync != nil {
		snap := h.sync.Snapshot()
		body["sync"] = gin.H{
			"pushed":  snap.Pushed,
			"done":    snap.Done,
			"failed":  snap.Failed,
			"retried": snap.Retried,
		}
	}

	ctx.JSON(http.StatusOK, body)
}
