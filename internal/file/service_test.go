package file

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/storage"
)

type memRepo struct {
	files   map[string]*File
	failErr error
}

func (r *memRepo) Create(_ context.Context, f *File) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.files[f.ID] = f
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*File, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// formFile builds a multipart header the way gin hands it to handlers.
func formFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("payment_proof", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, "/", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["payment_proof"][0]
}

func newTestService(t *testing.T) (*memRepo, storage.Storage, Service) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := &memRepo{files: map[string]*File{}}
	return repo, store, NewService(repo, store, "https://api.example.com/", logger.NewNop())
}

func TestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("Stores resized image and thumbnail", func(t *testing.T) {
		repo, _, svc := newTestService(t)
		f, err := svc.Upload(ctx, UploadInput{
			FileHeader: formFile(t, "proof.png", pngBytes(t, 1600, 800)),
			UserID:     "u1",
			BookingID:  "b1",
		})
		require.NoError(t, err)

		assert.Equal(t, "image/jpeg", f.ContentType)
		assert.Equal(t, "payment-proofs/b1/"+f.ID+".jpg", f.StoragePath)
		require.NotNil(t, f.ThumbnailPath)
		require.NotNil(t, f.BookingID)
		assert.Equal(t, "b1", *f.BookingID)
		assert.Contains(t, repo.files, f.ID)

		rc, stored, err := svc.Download(ctx, f.ID)
		require.NoError(t, err)
		defer rc.Close()
		assert.Equal(t, f.ID, stored.ID)

		img, _, err := image.Decode(rc)
		require.NoError(t, err)
		assert.Equal(t, 1000, img.Bounds().Dx())
		assert.Equal(t, 500, img.Bounds().Dy())

		thumb, _, err := svc.DownloadThumbnail(ctx, f.ID)
		require.NoError(t, err)
		thumb.Close()
	})

	t.Run("Rejects non-image content", func(t *testing.T) {
		_, _, svc := newTestService(t)
		_, err := svc.Upload(ctx, UploadInput{
			FileHeader: formFile(t, "proof.png", []byte("just some text pretending to be a png")),
			UserID:     "u1",
		})
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("Rejects oversized file", func(t *testing.T) {
		_, _, svc := newTestService(t)
		_, err := svc.Upload(ctx, UploadInput{
			FileHeader:   formFile(t, "proof.png", pngBytes(t, 50, 50)),
			UserID:       "u1",
			MaxSizeBytes: 10,
		})
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("Removes stored objects when the record cannot be saved", func(t *testing.T) {
		repo, store, svc := newTestService(t)
		repo.failErr = errors.New("db down")

		_, err := svc.Upload(ctx, UploadInput{
			FileHeader: formFile(t, "proof.png", pngBytes(t, 20, 20)),
			UserID:     "u1",
			BookingID:  "b2",
		})
		require.Error(t, err)
		assert.Empty(t, repo.files)

		_, err = store.Get(ctx, "payment-proofs/b2/anything.jpg")
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	})
}

func TestDownloadMissing(t *testing.T) {
	repo, _, svc := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Download(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	repo.files["no-thumb"] = &File{ID: "no-thumb", StoragePath: "payment-proofs/x.jpg"}
	_, _, err = svc.DownloadThumbnail(ctx, "no-thumb")
	assert.ErrorIs(t, err, ErrThumbnailNotFound)

	_, _, err = svc.Download(ctx, "no-thumb")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublicURL(t *testing.T) {
	_, _, svc := newTestService(t)
	assert.Equal(t, "https://api.example.com/v1/files/abc", svc.PublicURL("abc"))
	assert.Equal(t, "https://api.example.com/v1/files/abc/thumbnail", ThumbnailURL("https://api.example.com", "abc"))
}

