package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/mentor-booking-backend/internal/file"
	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/response"
)

type Handler struct {
	fileService file.Service
	log         logger.Logger
}

func NewHandler(fileService file.Service, log logger.Logger) *Handler {
	return &Handler{
		fileService: fileService,
		log:         log,
	}
}

// stream copies r to the response with the given headers.
func (h *Handler) stream(c *gin.Context, r io.ReadCloser, contentType, filename string) {
	defer r.Close()

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "inline; filename=\""+filename+"\"")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, r); err != nil {
		// Response already started
		h.log.Warn("file stream interrupted", logger.Error(err))
	}
}

func (h *Handler) fail(c *gin.Context, id string, err error) {
	if !apperror.IsClientError(err) {
		h.log.Error("failed to serve file", logger.String("file_id", id), logger.Error(err))
	}
	response.Error(c, err)
}

// ServeFile serves the file content by ID
func (h *Handler) ServeFile(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid file id", err)
		return
	}

	stream, info, err := h.fileService.Download(c.Request.Context(), req.ID)
	if err != nil {
		h.fail(c, req.ID, err)
		return
	}
	h.stream(c, stream, info.ContentType, info.Filename)
}

// ServeThumbnail serves the thumbnail image by file ID
func (h *Handler) ServeThumbnail(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid file id", err)
		return
	}

	stream, info, err := h.fileService.DownloadThumbnail(c.Request.Context(), req.ID)
	if err != nil {
		h.fail(c, req.ID, err)
		return
	}
	// Thumbnails are always JPEG
	h.stream(c, stream, "image/jpeg", info.Filename+"_thumb.jpg")
}
