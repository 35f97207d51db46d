package file

import (
	"net/http"
	"strings"
	"time"

	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "file not found")
	ErrThumbnailNotFound = apperror.New(http.StatusNotFound, "thumbnail not available for this file")
	ErrTooLarge          = apperror.New(http.StatusRequestEntityTooLarge, "file is too large")
	ErrUnsupportedType   = apperror.New(http.StatusUnsupportedMediaType, "unsupported file type")
	ErrInvalidImage      = apperror.New(http.StatusBadRequest, "file is not a readable image")
)

// File is an uploaded payment proof.
type File struct {
	ID            string
	UserID        string
	BookingID     *string
	Filename      string
	StoragePath   string
	ThumbnailPath *string
	ContentType   string
	Size          int64
	CreatedAt     time.Time
}

// FileURL returns the absolute URL serving the file.
func FileURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/v1/files/" + id
}

// ThumbnailURL returns the absolute URL serving the file's thumbnail.
func ThumbnailURL(baseURL, id string) string {
	return FileURL(baseURL, id) + "/thumbnail"
}
