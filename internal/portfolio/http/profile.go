package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheetfolio/portfolio-backend/internal/auth"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/domain"
)

func (h *Handler) getProfile(c *gin.Context) {
	profile, err := h.profiles.Fetch(c.Request.Context(), auth.Username(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}

type patchProfileReq struct {
	Fields         map[string]any          `json:"fields"`
	CustomSections *[]domain.CustomSection `json:"custom_sections,omitempty"`
}

func (h *Handler) patchProfile(c *gin.Context) {
	var req patchProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	fields := req.Fields
	if fields == nil {
		fields = map[string]any{}
	}

	// Custom sections travel structured over the wire but are persisted as a
	// JSON blob inside the profile row.
	if req.CustomSections != nil {
		blob, err := json.Marshal(*req.CustomSections)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid custom sections"})
			return
		}
		fields["custom_sections"] = string(blob)
	}

	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	if err := h.profiles.Update(c.Request.Context(), auth.Username(c), fields); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
