package http

import (
	"github.com/gin-gonic/gin"

	"github.com/sheetfolio/portfolio-backend/internal/auth"
)

// Register attaches every portfolio route to the /api/v1 group.
func (h *Handler) Register(api *gin.RouterGroup) {
	authGroup := api.Group("/auth")
	authGroup.POST("/signup", h.signup)
	authGroup.POST("/login", h.login)
	authGroup.POST("/logout", h.logout)

	public := api.Group("/portfolio")
	public.Use(auth.OptionalSession(h.sessions))
	public.GET("/:username", h.getPortfolio)
	public.GET("/:username/export", h.exportPortfolio)

	private := api.Group("")
	private.Use(auth.RequireSession(h.sessions))
	private.GET("/profile", h.getProfile)
	private.PATCH("/profile", h.patchProfile)
	private.GET("/sections/:section", h.listSection)
	private.POST("/sections", h.addSection)
	private.PUT("/sections", h.updateSection)
	private.DELETE("/sections", h.deleteSection)
}
