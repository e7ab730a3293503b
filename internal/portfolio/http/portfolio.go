package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sheetfolio/portfolio-backend/internal/auth"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/domain"
)

// loadFor fetches the read model for a path tenant, hiding non-public
// portfolios from everyone but their owner.
func (h *Handler) loadFor(c *gin.Context) (*domain.PortfolioReadModel, error) {
	tenant := strings.ToLower(strings.TrimSpace(c.Param("username")))

	model, err := h.agg.Load(c.Request.Context(), tenant)
	if err != nil {
		return nil, err
	}

	if !model.Profile.Public && !strings.EqualFold(auth.Username(c), tenant) {
		return nil, domain.ErrNotFound
	}
	return model, nil
}

func (h *Handler) getPortfolio(c *gin.Context) {
	model, err := h.loadFor(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model)
}

func (h *Handler) exportPortfolio(c *gin.Context) {
	model, err := h.loadFor(c)
	if err != nil {
		writeError(c, err)
		return
	}

	filename := fmt.Sprintf("portfolio-%s.json", model.Profile.Username)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, model)
}
