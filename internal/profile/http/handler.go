package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/mentor-booking-backend/internal/auth"
	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/mentor-booking-backend/internal/profile"
)

type Handler struct {
	service profile.Service
	log     logger.Logger
}

func NewHandler(service profile.Service, log logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Me retrieves the profile of the currently authenticated user.
func (h *Handler) Me(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		if !apperror.IsClientError(err) {
			h.log.Error("failed to get profile", logger.String("user_id", userID), logger.Error(err))
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewProfileResponse(p))
}
