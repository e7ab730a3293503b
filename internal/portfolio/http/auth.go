package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sheetfolio/portfolio-backend/internal/auth"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/domain"
)

type signupReq struct {
	Username string         `json:"username"`
	PIN      string         `json:"pin"`
	FullName string         `json:"full_name"`
	Extra    map[string]any `json:"extra,omitempty"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	ctx := c.Request.Context()

	// Duplicate check is check-then-create, not atomic; two racing signups
	// for the same name can both pass. Acceptable for this product.
	_, err := h.profiles.Fetch(ctx, username)
	if err == nil {
		writeError(c, domain.ErrAlreadyExists)
		return
	}
	if !errors.Is(err, domain.ErrNotFound) {
		writeError(c, err)
		return
	}

	fields := map[string]any{
		"pin":       req.PIN,
		"full_name": req.FullName,
	}
	for k, v := range req.Extra {
		fields[k] = v
	}

	if err := h.profiles.Create(ctx, username, fields); err != nil {
		writeError(c, err)
		return
	}

	h.log.Info("profile created", zap.String("tenant", username))
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

type loginReq struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	ctx := c.Request.Context()
	username := strings.ToLower(strings.TrimSpace(req.Username))

	ok, err := h.profiles.VerifyPIN(ctx, username, req.PIN)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.sessions.Create(ctx, username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.SetCookie(auth.SessionCookie, token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.sessions.Revoke(c.Request.Context(), auth.Token(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
