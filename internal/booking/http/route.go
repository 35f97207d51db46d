package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.POST("", h.Create)
		group.GET("", h.ListForStudent)
		group.GET("/:id", h.Get)
		group.POST("/:id/accept", h.Accept)
		group.POST("/:id/accept-with-proof", h.AcceptWithProof)
		group.POST("/:id/cancel", h.Cancel)
		group.POST("/:id/complete", h.Complete)
		group.PATCH("/:id/status", h.UpdateStatus)
	}

	g.GET("/mentor/bookings", authMiddleware, h.ListForMentor)
}
