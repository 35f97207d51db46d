package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/storage"
)

const (
	maxImageSide     = 1000
	thumbnailSide    = 200
	defaultMaxUpload = 5 << 20
)

var defaultAllowedTypes = []string{"image/jpeg", "image/png"}

// UploadInput describes one payment-proof upload.
type UploadInput struct {
	FileHeader   *multipart.FileHeader
	UserID       string
	BookingID    string
	MaxSizeBytes int64    // 0 uses the default limit
	AllowedTypes []string // empty allows JPEG and PNG
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*File, error)
	Get(ctx context.Context, id string) (*File, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *File, error)
	DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error)
	// PublicURL is the absolute address other records store to reference the file.
	PublicURL(id string) string
}

type service struct {
	repo    Repository
	storage storage.Storage
	imgProc *storage.ImageProcessor
	baseURL string
	log     logger.Logger
}

func NewService(repo Repository, store storage.Storage, baseURL string, log logger.Logger) Service {
	return &service{
		repo:    repo,
		storage: store,
		imgProc: storage.NewImageProcessor(),
		baseURL: baseURL,
		log:     log,
	}
}

func (s *service) PublicURL(id string) string {
	return FileURL(s.baseURL, id)
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*File, error) {
	limit := input.MaxSizeBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	if input.FileHeader.Size > limit {
		return nil, ErrTooLarge
	}

	src, err := input.FileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	// Read one byte past the limit so an understated header size is still caught.
	fileBytes, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	if int64(len(fileBytes)) > limit {
		return nil, ErrTooLarge
	}

	allowed := input.AllowedTypes
	if len(allowed) == 0 {
		allowed = defaultAllowedTypes
	}
	if !slices.Contains(allowed, http.DetectContentType(fileBytes)) {
		return nil, ErrUnsupportedType
	}

	// Always re-encode: strips metadata and bounds the stored size.
	full, err := s.imgProc.Fit(bytes.NewReader(fileBytes), maxImageSide, maxImageSide)
	if err != nil {
		return nil, ErrInvalidImage
	}
	size := int64(full.Len())

	fileID := uuid.New().String()
	dir := "payment-proofs/"
	if input.BookingID != "" {
		dir += input.BookingID + "/"
	}
	storagePath := dir + fileID + ".jpg"

	if err := s.storage.Save(ctx, storagePath, full); err != nil {
		return nil, fmt.Errorf("failed to save file to storage: %w", err)
	}

	var thumbnailPath *string
	thumb, err := s.imgProc.Fit(bytes.NewReader(fileBytes), thumbnailSide, thumbnailSide)
	if err == nil {
		tPath := dir + fileID + "_thumb.jpg"
		if err = s.storage.Save(ctx, tPath, thumb); err == nil {
			thumbnailPath = &tPath
		}
	}
	if err != nil {
		s.log.Warn("thumbnail generation failed", logger.String("file_id", fileID), logger.Error(err))
	}

	f := &File{
		ID:            fileID,
		UserID:        input.UserID,
		Filename:      input.FileHeader.Filename,
		StoragePath:   storagePath,
		ThumbnailPath: thumbnailPath,
		ContentType:   "image/jpeg",
		Size:          size,
		CreatedAt:     time.Now().UTC(),
	}
	if input.BookingID != "" {
		f.BookingID = &input.BookingID
	}

	if err := s.repo.Create(ctx, f); err != nil {
		// Cleanup storage if db fails
		_ = s.storage.Delete(ctx, storagePath)
		if thumbnailPath != nil {
			_ = s.storage.Delete(ctx, *thumbnailPath)
		}
		return nil, err
	}

	return f, nil
}

func (s *service) Get(ctx context.Context, id string) (*File, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) open(ctx context.Context, key string) (io.ReadCloser, error) {
	stream, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve file from storage: %w", err)
	}
	return stream, nil
}

func (s *service) Download(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.open(ctx, f.StoragePath)
	if err != nil {
		return nil, nil, err
	}
	return stream, f, nil
}

func (s *service) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if f.ThumbnailPath == nil {
		return nil, nil, ErrThumbnailNotFound
	}

	stream, err := s.open(ctx, *f.ThumbnailPath)
	if err != nil {
		return nil, nil, err
	}
	return stream, f, nil
}
