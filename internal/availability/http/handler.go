package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/mentor-booking-backend/internal/availability"
	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/response"
)

type Handler struct {
	generator *availability.Generator
	log       logger.Logger
}

func NewHandler(generator *availability.Generator, log logger.Logger) *Handler {
	return &Handler{generator: generator, log: log}
}

// Get returns the mentor's slots for the requested calendar day.
func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid mentor id", err)
		return
	}

	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "date must be formatted as YYYY-MM-DD", err)
		return
	}
	date, err := time.Parse(time.DateOnly, q.Date)
	if err != nil {
		response.BadRequest(c, "date must be formatted as YYYY-MM-DD", err)
		return
	}

	slots, err := h.generator.Generate(c.Request.Context(), uri.ID, date)
	if err != nil {
		if !apperror.IsClientError(err) {
			h.log.Error("failed to generate availability", logger.String("mentor_id", uri.ID), logger.Error(err))
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, AvailabilityResponse{
		MentorID: uri.ID,
		Date:     q.Date,
		Slots:    slots,
	})
}
