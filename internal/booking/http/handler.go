package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/mentor-booking-backend/internal/auth"
	"github.com/nekogravitycat/mentor-booking-backend/internal/booking"
	"github.com/nekogravitycat/mentor-booking-backend/internal/file"
	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/response"
)

const paymentProofField = "payment_proof"

type Handler struct {
	service        booking.Service
	files          file.Service
	maxUploadBytes int64
	log            logger.Logger
}

func NewHandler(service booking.Service, files file.Service, maxUploadBytes int64, log logger.Logger) *Handler {
	return &Handler{
		service:        service,
		files:          files,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// fail logs unexpected errors and renders err.
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	if !apperror.IsClientError(err) {
		h.log.Error(msg, logger.String("user_id", auth.GetUserID(c)), logger.Error(err))
	}
	response.Error(c, err)
}

func (h *Handler) bindID(c *gin.Context) (string, bool) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return "", false
	}
	return req.ID, true
}

// Create books a session for the calling student.
func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		StudentID:   auth.GetUserID(c),
		MentorID:    body.MentorID,
		ScheduledAt: body.ScheduledAt,
		Duration:    body.Duration,
		Note:        body.Note,
	})
	if err != nil {
		h.fail(c, "failed to create booking", err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

// ListForStudent lists the caller's own bookings.
func (h *Handler) ListForStudent(c *gin.Context) {
	var q ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	bookings, err := h.service.ListForStudent(c.Request.Context(), auth.GetUserID(c), q.Filter())
	if err != nil {
		h.fail(c, "failed to list student bookings", err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewStudentViewResponse(b)
	}
	c.JSON(http.StatusOK, response.NewListResponse(items))
}

// ListForMentor lists bookings targeting the calling mentor.
func (h *Handler) ListForMentor(c *gin.Context) {
	var q ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	bookings, err := h.service.ListForMentor(c.Request.Context(), auth.GetUserID(c), q.Filter())
	if err != nil {
		h.fail(c, "failed to list mentor bookings", err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewMentorViewResponse(b)
	}
	c.JSON(http.StatusOK, response.NewListResponse(items))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), id, auth.GetUserID(c))
	if err != nil {
		h.fail(c, "failed to get booking", err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Accept confirms a pending booking with a textual payment link.
func (h *Handler) Accept(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var body AcceptBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.Accept(c.Request.Context(), id, auth.GetUserID(c), booking.AcceptRequest{
		MeetingLink: body.MeetingLink,
		MentorNote:  body.MentorNote,
		PaymentLink: body.PaymentLink,
	})
	if err != nil {
		h.fail(c, "failed to accept booking", err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// AcceptWithProof confirms a pending booking with an uploaded payment-proof image.
// The upload happens first; if the confirmation then fails the upload stays behind.
func (h *Handler) AcceptWithProof(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var form AcceptWithProofForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, "invalid form data", err)
		return
	}
	header, err := c.FormFile(paymentProofField)
	if err != nil {
		response.BadRequest(c, paymentProofField+" is required", nil)
		return
	}

	ctx := c.Request.Context()
	userID := auth.GetUserID(c)

	if err := h.service.CheckAcceptable(ctx, id, userID, form.MeetingLink); err != nil {
		h.fail(c, "failed to accept booking", err)
		return
	}

	f, err := h.files.Upload(ctx, file.UploadInput{
		FileHeader:   header,
		UserID:       userID,
		BookingID:    id,
		MaxSizeBytes: h.maxUploadBytes,
	})
	if err != nil {
		h.fail(c, "payment proof upload failed", err)
		return
	}

	b, err := h.service.Accept(ctx, id, userID, booking.AcceptRequest{
		MeetingLink: form.MeetingLink,
		MentorNote:  form.MentorNote,
		PaymentLink: h.files.PublicURL(f.ID),
	})
	if err != nil {
		h.log.Warn("payment proof orphaned after failed accept",
			logger.String("booking_id", id),
			logger.String("file_id", f.ID),
			logger.Error(err))
		h.fail(c, "failed to accept booking", err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), id, auth.GetUserID(c))
	if err != nil {
		h.fail(c, "failed to cancel booking", err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Complete(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	b, err := h.service.Complete(c.Request.Context(), id, auth.GetUserID(c))
	if err != nil {
		h.fail(c, "failed to complete booking", err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// UpdateStatus applies a generic transition; confirmation still requires Accept.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var body UpdateStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.Transition(c.Request.Context(), id, auth.GetUserID(c), booking.Status(body.Status))
	if err != nil {
		h.fail(c, "failed to update booking status", err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}
