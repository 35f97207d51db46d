package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/mentor-booking-backend/internal/auth"
	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/mentor"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/response"
)

type Handler struct {
	service mentor.Service
	log     logger.Logger
}

func NewHandler(service mentor.Service, log logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	if !apperror.IsClientError(err) {
		h.log.Error(msg, logger.Error(err))
	}
	response.Error(c, err)
}

// List returns the mentor directory, optionally filtered by expertise.
func (h *Handler) List(c *gin.Context) {
	var q ListMentorsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	mentors, err := h.service.List(c.Request.Context(), mentor.Filter{
		Expertise: q.Expertise,
		Status:    mentor.Status(q.Status),
	})
	if err != nil {
		h.fail(c, "failed to list mentors", err)
		return
	}

	items := make([]MentorResponse, len(mentors))
	for i, m := range mentors {
		items[i] = NewMentorResponse(m)
	}
	c.JSON(http.StatusOK, response.NewListResponse(items))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid mentor id", err)
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		h.fail(c, "failed to get mentor", err)
		return
	}
	c.JSON(http.StatusOK, NewMentorResponse(m))
}

// UpdateMe lets the authenticated mentor change their rate or availability status.
func (h *Handler) UpdateMe(c *gin.Context) {
	var body UpdateMentorRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := mentor.UpdateRequest{HourlyRate: body.HourlyRate}
	if body.Status != nil {
		st := mentor.Status(*body.Status)
		req.Status = &st
	}

	m, err := h.service.UpdateOwn(c.Request.Context(), auth.GetUserID(c), req)
	if err != nil {
		h.fail(c, "failed to update mentor", err)
		return
	}
	c.JSON(http.StatusOK, NewMentorResponse(m))
}
