package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okovalenko/uniconnect/internal/config"
	"github.com/okovalenko/uniconnect/internal/domain/announcement"
	"github.com/okovalenko/uniconnect/internal/http/middlewares"
	"github.com/okovalenko/uniconnect/internal/listview"
)

type ListingService interface {
	Create(ctx context.Context, authorID, orgType string, req announcement.CreateRequest) (announcement.Announcement, error)
	Update(ctx context.Context, id string, p announcement.UpdatePatch) (announcement.Announcement, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (announcement.Announcement, error)
	RecordView(ctx context.Context, id string) (int, error)
	GetActive(ctx context.Context) ([]announcement.Announcement, error)
	GetByAuthor(ctx context.Context, authorID string) ([]announcement.Announcement, error)
}

type AnnouncementsHandler struct {
	svc ListingService
}

func NewAnnouncementsHandler(svc ListingService) *AnnouncementsHandler {
	return &AnnouncementsHandler{svc: svc}
}

// filter query params forwarded into the list pipeline
var listFilterKeys = []string{"search", "category", "organization", "date", "format", "urgent", "location"}

// List serves the board: active announcements filtered, sorted and
// paginated according to the query string.
func (h *AnnouncementsHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	items, err := h.svc.GetActive(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load announcements")
		return
	}

	opts := []listview.PipelineOption{}

	if perPage, err := strconv.Atoi(ctx.Query("perPage")); err == nil && perPage > 0 && perPage <= 100 {
		opts = append(opts, listview.WithItemsPerPage(perPage))
	}

	p := listview.NewPipeline(opts...)
	p.SetItems(items)

	for _, key := range listFilterKeys {
		if v := ctx.Query(key); v != "" {
			p.SetFilter(key, v)
		}
	}

	if sortKey := ctx.Query("sort"); sortKey != "" {
		p.SetSort(sortKey)
	}

	if page, err := strconv.Atoi(ctx.Query("page")); err == nil {
		p.GoToPage(page)
	}

	RespondJSONWithETag(ctx, http.StatusOK, p.Current())
}

func (h *AnnouncementsHandler) Create(ctx *gin.Context) {
	authorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}
	orgType, _ := middlewares.OrgTypeFromContext(ctx)

	var req announcement.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	a, err := h.svc.Create(cctx, authorID, orgType, req)

	if err != nil {
		RespondInternal(ctx, "Could not create announcement")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":      "Announcement created",
		"announcement": a,
	})
}

// GetByID is a pure read; the view counter only moves via RecordView.
func (h *AnnouncementsHandler) GetByID(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	a, err := h.svc.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, announcement.ErrNotFound) {
			RespondNotFound(ctx, "Announcement not found")
			return
		}
		RespondInternal(ctx, "Could not load announcement")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"announcement": a})
}

func (h *AnnouncementsHandler) RecordView(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	count, err := h.svc.RecordView(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, announcement.ErrNotFound) {
			RespondNotFound(ctx, "Announcement not found")
			return
		}
		RespondInternal(ctx, "Could not record view")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"viewCount": count})
}

func (h *AnnouncementsHandler) Mine(ctx *gin.Context) {
	authorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	items, err := h.svc.GetByAuthor(cctx, authorID)

	if err != nil {
		RespondInternal(ctx, "Could not load announcements")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *AnnouncementsHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	if !h.requireOwnership(ctx, id) {
		return
	}

	var patch announcement.UpdatePatch

	if !BindJSON(ctx, &patch) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	a, err := h.svc.Update(cctx, id, patch)

	if err != nil {
		if errors.Is(err, announcement.ErrNotFound) {
			RespondNotFound(ctx, "Announcement not found")
			return
		}
		RespondInternal(ctx, "Could not update announcement")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":      "Announcement updated",
		"announcement": a,
	})
}

func (h *AnnouncementsHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	if !h.requireOwnership(ctx, id) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err := h.svc.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, announcement.ErrNotFound) {
			RespondNotFound(ctx, "Announcement not found")
			return
		}
		RespondInternal(ctx, "Could not delete announcement")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Announcement deleted"})
}

// requireOwnership loads the record and checks the caller authored it.
func (h *AnnouncementsHandler) requireOwnership(ctx *gin.Context, id string) bool {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return false
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	a, err := h.svc.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, announcement.ErrNotFound) {
			RespondNotFound(ctx, "Announcement not found")
			return false
		}
		RespondInternal(ctx, "Could not load announcement")
		return false
	}

	if a.AuthorID != userID {
		RespondForbidden(ctx, "Only the author can modify this announcement")
		return false
	}

	return true
}
