package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okovalenko/uniconnect/internal/config"
	"github.com/okovalenko/uniconnect/internal/domain/announcement"
	"github.com/okovalenko/uniconnect/internal/http/middlewares"
	"github.com/okovalenko/uniconnect/internal/listing"
)

type DraftStore interface {
	SaveDraft(ctx context.Context, authorID string, form announcement.CreateRequest) error
	LoadDraft(ctx context.Context, authorID string) (listing.Draft, error)
	ClearDraft(ctx context.Context, authorID string) error
}

// AutoSaveScheduler restarts the delayed write on every form change.
type AutoSaveScheduler interface {
	Touch(authorID string, form announcement.CreateRequest)
	Cancel(authorID string)
}

type DraftsHandler struct {
	drafts    DraftStore
	autosaver AutoSaveScheduler
}

func NewDraftsHandler(drafts DraftStore, autosaver AutoSaveScheduler) *DraftsHandler {
	return &DraftsHandler{drafts: drafts, autosaver: autosaver}
}

// Get returns the caller's saved draft, if any.
func (h *DraftsHandler) Get(ctx *gin.Context) {
	authorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	d, err := h.drafts.LoadDraft(cctx, authorID)

	if err != nil {
		if errors.Is(err, listing.ErrNoDraft) {
			RespondNotFound(ctx, "No saved draft")
			return
		}
		RespondInternal(ctx, "Could not load draft")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"draft": d})
}

// Put saves the form immediately.
func (h *DraftsHandler) Put(ctx *gin.Context) {
	authorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	// drafts skip required-field validation, half-filled forms are the
	// whole point
	var form announcement.CreateRequest

	err := json.NewDecoder(ctx.Request.Body).Decode(&form)

	if err != nil {
		RespondBadRequest(ctx, "Invalid draft body", gin.H{"reason": err.Error()})
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err = h.drafts.SaveDraft(cctx, authorID, form)

	if err != nil {
		RespondInternal(ctx, "Could not save draft")
		return
	}

	if h.autosaver != nil {
		h.autosaver.Cancel(authorID)
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Draft saved"})
}

// Touch schedules a delayed autosave of the submitted form state.
func (h *DraftsHandler) Touch(ctx *gin.Context) {
	authorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	if h.autosaver == nil {
		ctx.Status(http.StatusNoContent)
		return
	}

	var form announcement.CreateRequest

	err := json.NewDecoder(ctx.Request.Body).Decode(&form)

	if err != nil {
		RespondBadRequest(ctx, "Invalid draft body", gin.H{"reason": err.Error()})
		return
	}

	h.autosaver.Touch(authorID, form)

	ctx.Status(http.StatusAccepted)
}

func (h *DraftsHandler) Delete(ctx *gin.Context) {
	authorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err := h.drafts.ClearDraft(cctx, authorID)

	if err != nil {
		RespondInternal(ctx, "Could not clear draft")
		return
	}

	if h.autosaver != nil {
		h.autosaver.Cancel(authorID)
	}

	ctx.Status(http.StatusNoContent)
}
