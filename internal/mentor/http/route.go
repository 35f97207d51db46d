package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	mentors := g.Group("/mentors")
	{
		mentors.GET("", h.List)
		mentors.PATCH("/me", authMiddleware, h.UpdateMe)
		mentors.GET("/:id", h.Get)
	}
}
