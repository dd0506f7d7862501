package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okovalenko/uniconnect/internal/auth"
	"github.com/okovalenko/uniconnect/internal/config"
	"github.com/okovalenko/uniconnect/internal/domain/user"
	"github.com/okovalenko/uniconnect/internal/identity"
)

// IdentityService is the slice of the identity service these handlers
// touch; kept small so tests can fake it.
type IdentityService interface {
	Register(ctx context.Context, req user.RegisterRequest) (user.User, error)
	Login(ctx context.Context, email, password string) (user.User, error)
	StartSession(ctx context.Context, sess identity.Session) error
	GetSession(ctx context.Context, id string) (identity.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

type AuthHandler struct {
	svc IdentityService
	jwt *auth.Manager
	cfg config.Config
}

func NewAuthHandler(svc IdentityService, jwtManager *auth.Manager, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		svc: svc,
		jwt: jwtManager,
		cfg: cfg,
	}
}

type LoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	u, err := h.svc.Register(cctx, req)

	if err != nil {
		var vErr *identity.ValidationError

		if errors.As(err, &vErr) {
			RespondValidation(ctx, vErr.Errors)
			return
		}

		if errors.Is(err, identity.ErrDuplicateEmail) {
			RespondConflict(ctx, "email_taken", "A user with this email already exists.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. You can now sign in.",
		"user":    u,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	foundUser, err := h.svc.Login(cctx, req.Email, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondUnAuthorized(ctx, "unknown_email", "No user with this email was found.")
		case errors.Is(err, identity.ErrDeactivated):
			RespondForbidden(ctx, "Account is deactivated. Contact an administrator.")
		case errors.Is(err, identity.ErrBadCredentials):
			RespondUnAuthorized(ctx, "invalid_password", "Password is incorrect.")
		default:
			RespondInternal(ctx, "Could not sign in")
		}
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(foundUser.ID, foundUser.Email, string(foundUser.Type))

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	rawRefreshToken, jti, expiresAt, err := h.jwt.GenerateRefreshToken(foundUser.ID, foundUser.Email, string(foundUser.Type), req.RememberMe)

	if err != nil {
		RespondInternal(ctx, "Could not generate refresh token")
		return
	}

	err = h.svc.StartSession(cctx, identity.Session{
		ID:        jti,
		UserID:    foundUser.ID,
		Email:     foundUser.Email,
		OrgType:   string(foundUser.Type),
		Remember:  req.RememberMe,
		ExpiresAt: expiresAt,
	})

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.setRefreshCookie(ctx, rawRefreshToken, expiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
		"user":        foundUser,
	})
}

// Refresh rotates the session: the presented refresh token must match a
// live server-side session, which is replaced along with the cookie.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, err := ctx.Cookie(h.refreshCookieName())

	if err != nil || raw == "" {
		RespondUnAuthorized(ctx, "no_refresh", "Missing refresh token")
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	sess, err := h.svc.GetSession(cctx, claims.JTI)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	newRaw, newJTI, newExpiresAt, err := h.jwt.GenerateRefreshToken(sess.UserID, sess.Email, sess.OrgType, sess.Remember)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	// revoke old, insert new

	err = h.svc.Logout(cctx, sess.ID)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	err = h.svc.StartSession(cctx, identity.Session{
		ID:        newJTI,
		UserID:    sess.UserID,
		Email:     sess.Email,
		OrgType:   sess.OrgType,
		Remember:  sess.Remember,
		ExpiresAt: newExpiresAt,
	})

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(sess.UserID, sess.Email, sess.OrgType)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.setRefreshCookie(ctx, newRaw, newExpiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw, err := ctx.Cookie(h.refreshCookieName())

	if err != nil || raw == "" {
		// still clear cookie to be safe
		h.clearRefreshCookie(ctx)
		ctx.Status(http.StatusNoContent)
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)
	if err != nil {
		h.clearRefreshCookie(ctx)
		ctx.Status(http.StatusNoContent)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	// idempotent
	_ = h.svc.Logout(cctx, claims.JTI)

	h.clearRefreshCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

// Helper functions

func (h *AuthHandler) refreshCookieName() string {
	return "refresh_token"
}

func (h *AuthHandler) setRefreshCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	secure := h.cfg.Env == "prod"

	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		h.refreshCookieName(),
		raw,
		maxAge,
		"/auth",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearRefreshCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		h.refreshCookieName(),
		"",

		-1,
		"/auth",
		"",
		secure,
		true,
	)
}
