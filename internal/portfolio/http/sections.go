package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sheetfolio/portfolio-backend/internal/auth"
)

type addReq struct {
	Section string         `json:"section"`
	Data    map[string]any `json:"data"`
}

func (h *Handler) addSection(c *gin.Context) {
	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Section) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	tenant := auth.Username(c)
	if err := h.store.Add(c.Request.Context(), req.Section, tenant, req.Data); err != nil {
		writeError(c, err)
		return
	}

	h.log.Info("record added", zap.String("section", req.Section), zap.String("tenant", tenant))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type updateReq struct {
	Section string         `json:"section"`
	Index   *int           `json:"index"`
	Data    map[string]any `json:"data"`
}

func (h *Handler) updateSection(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Section) == "" || req.Index == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	tenant := auth.Username(c)
	if err := h.store.Update(c.Request.Context(), req.Section, tenant, *req.Index, req.Data); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type deleteReq struct {
	Section string `json:"section"`
	Index   *int   `json:"index"`
}

func (h *Handler) deleteSection(c *gin.Context) {
	var req deleteReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Section) == "" || req.Index == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	tenant := auth.Username(c)
	if err := h.store.Delete(c.Request.Context(), req.Section, tenant, *req.Index); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) listSection(c *gin.Context) {
	section := c.Param("section")
	tenant := auth.Username(c)

	records, err := h.store.List(c.Request.Context(), section, tenant)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "records": records})
}
