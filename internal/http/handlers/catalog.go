package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okovalenko/uniconnect/internal/catalog"
	"github.com/okovalenko/uniconnect/internal/config"
)

type CatalogLoader interface {
	Catalog(ctx context.Context) (catalog.Catalog, error)
}

type CatalogHandler struct {
	loader CatalogLoader
}

func NewCatalogHandler(loader CatalogLoader) *CatalogHandler {
	return &CatalogHandler{loader: loader}
}

// Get serves the reference data the forms and filters are built from.
// The payload changes rarely, so the etag spares repeated transfers.
func (h *CatalogHandler) Get(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	c, err := h.loader.Catalog(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load catalog")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, c)
}
