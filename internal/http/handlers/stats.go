package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okovalenko/uniconnect/internal/config"
	"github.com/okovalenko/uniconnect/internal/listing"
)

type StatsProvider interface {
	Statistics(ctx context.Context) (listing.Statistics, error)
}

type StatsHandler struct {
	stats StatsProvider
}

func NewStatsHandler(stats StatsProvider) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) Get(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	s, err := h.stats.Statistics(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load statistics")
		return
	}

	ctx.JSON(http.StatusOK, s)
}
