package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okovalenko/uniconnect/internal/config"
	"github.com/okovalenko/uniconnect/internal/domain/user"
	"github.com/okovalenko/uniconnect/internal/http/middlewares"
	"github.com/okovalenko/uniconnect/internal/identity"
)

type UserDirectory interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByType(ctx context.Context, t user.OrgType) ([]user.User, error)
	UpdateProfile(ctx context.Context, id string, p user.ProfilePatch) (user.User, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
	LogoutAll(ctx context.Context, userID string) error
}

type UsersHandler struct {
	users UserDirectory
}

func NewUsersHandler(users UserDirectory) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not load profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var patch user.ProfilePatch

	if !BindJSON(ctx, &patch) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.users.UpdateProfile(cctx, userID, patch)

	if err != nil {
		var vErr *identity.ValidationError

		switch {
		case errors.As(err, &vErr):
			RespondValidation(ctx, vErr.Errors)
		case errors.Is(err, identity.ErrDuplicateEmail):
			RespondConflict(ctx, "email_taken", "A user with this email already exists.")
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		default:
			RespondInternal(ctx, "Could not update profile")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Profile updated",
		"user":    u,
	})
}

func (h *UsersHandler) ChangeMyPassword(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req user.ChangePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err := h.users.ChangePassword(cctx, userID, req.CurrentPassword, req.NewPassword)

	if err != nil {
		var vErr *identity.ValidationError

		switch {
		case errors.As(err, &vErr):
			RespondValidation(ctx, vErr.Errors)
		case errors.Is(err, identity.ErrBadCredentials):
			RespondUnAuthorized(ctx, "invalid_password", "Current password is incorrect.")
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		default:
			RespondInternal(ctx, "Could not change password")
		}
		return
	}

	// password changed, all other sessions die
	_ = h.users.LogoutAll(cctx, userID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	u, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *UsersHandler) ListUniversities(ctx *gin.Context) {
	h.listByType(ctx, user.TypeUniversity)
}

func (h *UsersHandler) ListCompanies(ctx *gin.Context) {
	h.listByType(ctx, user.TypeCompany)
}

func (h *UsersHandler) listByType(ctx *gin.Context, t user.OrgType) {
	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	list, err := h.users.GetByType(cctx, t)

	if err != nil {
		RespondInternal(ctx, "Could not load organizations")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": list,
		"count": len(list),
	})
}
