package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/mentor-booking-backend/internal/auth"
	"github.com/nekogravitycat/mentor-booking-backend/internal/booking"
	"github.com/nekogravitycat/mentor-booking-backend/internal/file"
	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/response"
)

const (
	bookingID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	userID    = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
)

type stubService struct {
	booking.Service
	calls     []string
	acceptReq booking.AcceptRequest
	checkErr  error
	acceptErr error
	list      []*booking.Booking
}

func (s *stubService) CheckAcceptable(_ context.Context, _, _, _ string) error {
	s.calls = append(s.calls, "check")
	return s.checkErr
}

func (s *stubService) Accept(_ context.Context, id, _ string, req booking.AcceptRequest) (*booking.Booking, error) {
	s.calls = append(s.calls, "accept")
	s.acceptReq = req
	if s.acceptErr != nil {
		return nil, s.acceptErr
	}
	link := req.MeetingLink
	return &booking.Booking{ID: id, Status: booking.StatusConfirmed, MeetingLink: &link, PaymentLink: &req.PaymentLink}, nil
}

func (s *stubService) ListForStudent(_ context.Context, _ string, _ booking.Filter) ([]*booking.Booking, error) {
	return s.list, nil
}

func (s *stubService) ListForMentor(_ context.Context, _ string, _ booking.Filter) ([]*booking.Booking, error) {
	return s.list, nil
}

type stubFiles struct {
	file.Service
	uploads int
	err     error
}

func (f *stubFiles) Upload(_ context.Context, in file.UploadInput) (*file.File, error) {
	f.uploads++
	if f.err != nil {
		return nil, f.err
	}
	return &file.File{ID: "file-1", UserID: in.UserID}, nil
}

func (f *stubFiles) PublicURL(id string) string {
	return "https://api.example.com/v1/files/" + id
}

func newRouter(t *testing.T, svc booking.Service, files file.Service) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.GenerateAccessToken(userID, "mentor@example.com")
	require.NoError(t, err)

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, files, 1<<20, logger.NewNop()), auth.AuthRequired(jwtManager))
	return r, token
}

func proofRequest(t *testing.T, token, meetingLink string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("meeting_link", meetingLink))
	require.NoError(t, mw.WriteField("mentor_note", "see you"))
	part, err := mw.CreateFormFile("payment_proof", "proof.png")
	require.NoError(t, err)
	_, err = io.WriteString(part, "fake image bytes")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/accept-with-proof", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAcceptWithProof(t *testing.T) {
	t.Run("Uploads then accepts with the file URL", func(t *testing.T) {
		svc, files := &stubService{}, &stubFiles{}
		r, token := newRouter(t, svc, files)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, proofRequest(t, token, "https://meet.example.com/abc"))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, []string{"check", "accept"}, svc.calls)
		assert.Equal(t, 1, files.uploads)
		assert.Equal(t, "https://api.example.com/v1/files/file-1", svc.acceptReq.PaymentLink)
		assert.Equal(t, "see you", svc.acceptReq.MentorNote)

		var resp BookingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "confirmed", resp.Status)
	})

	t.Run("Invalid link is rejected before upload", func(t *testing.T) {
		svc, files := &stubService{checkErr: booking.ErrInvalidMeetingLink}, &stubFiles{}
		r, token := newRouter(t, svc, files)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, proofRequest(t, token, "not a url"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, files.uploads)
		assert.Equal(t, []string{"check"}, svc.calls)
	})

	t.Run("Upload failure leaves booking untouched", func(t *testing.T) {
		svc, files := &stubService{}, &stubFiles{err: file.ErrUnsupportedType}
		r, token := newRouter(t, svc, files)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, proofRequest(t, token, "https://meet.example.com/abc"))

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		assert.Equal(t, []string{"check"}, svc.calls)
	})

	t.Run("Accept failure after upload is reported", func(t *testing.T) {
		svc, files := &stubService{acceptErr: errors.New("db down")}, &stubFiles{}
		r, token := newRouter(t, svc, files)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, proofRequest(t, token, "https://meet.example.com/abc"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp response.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "internal server error", resp.Error)
		assert.Equal(t, 1, files.uploads)
	})

	t.Run("Missing token", func(t *testing.T) {
		r, _ := newRouter(t, &stubService{}, &stubFiles{})
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings/"+bookingID+"/accept-with-proof", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestListRendersMissingJoins(t *testing.T) {
	name := "Ada Lovelace"
	svc := &stubService{list: []*booking.Booking{
		{ID: "b1", MentorID: "m1", StudentID: "s1", Status: booking.StatusPending,
			Mentor: &booking.MentorRef{ID: "m1", Name: &name}, Student: &booking.StudentRef{ID: "s1", Name: &name}},
		{ID: "b2", MentorID: "m2", StudentID: "s2", Status: booking.StatusPending},
	}}
	r, token := newRouter(t, svc, &stubFiles{})

	get := func(path string) response.ListResponse[BookingResponse] {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp response.ListResponse[BookingResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	student := get("/v1/bookings")
	require.Len(t, student.Items, 2)
	assert.Equal(t, "Ada Lovelace", student.Items[0].Mentor.Name)
	assert.Equal(t, "Unknown Mentor", student.Items[1].Mentor.Name)
	assert.Nil(t, student.Items[0].Student)

	mentor := get("/v1/mentor/bookings")
	require.Len(t, mentor.Items, 2)
	assert.Equal(t, "Ada Lovelace", mentor.Items[0].Student.Name)
	assert.Equal(t, "Unknown Student", mentor.Items[1].Student.Name)

	req := httptest.NewRequest(http.MethodGet, "/v1/bookings?status=archived", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
