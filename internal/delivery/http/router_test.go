package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campusevents/internal/delivery/http/controllers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (string, error) {
	if token == "good" {
		return "u1", nil
	}
	return "", domain.ErrUnauthorized
}

type stubFeed struct{ domain.FeedService }

func (stubFeed) ListEvents(ctx context.Context, page int) ([]*domain.Event, error) {
	return []*domain.Event{}, nil
}

type stubEngagement struct{ calls int }

func (s *stubEngagement) ToggleLike(ctx context.Context, eventID, userID string) (*domain.LikeResult, error) {
	s.calls++
	return &domain.LikeResult{Likes: 1, Liked: true}, nil
}

func (s *stubEngagement) AddComment(ctx context.Context, eventID, userID, text string) (*domain.Comment, error) {
	return nil, errors.New("not used")
}

type stubProfiles struct{ domain.ProfileService }

func (stubProfiles) OpenPhoto(ctx context.Context, name string) (io.ReadCloser, error) {
	if name == "a.png" {
		return io.NopCloser(strings.NewReader("png")), nil
	}
	return nil, domain.ErrNotFound
}

func newTestRouter(engagement *stubEngagement) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(
		controllers.NewEventController(logger, stubFeed{}),
		controllers.NewStatController(logger, engagement),
		controllers.NewUserController(logger, stubProfiles{}),
		stubVerifier{},
		middleware.NewRateLimiter(1, 2, time.Minute),
		logger,
	)
}

func TestRouter(t *testing.T) {
	router := newTestRouter(&stubEngagement{})

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{name: "health is public", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK},
		{name: "feed requires auth", method: http.MethodGet, path: "/api/event/getevent", wantStatus: http.StatusUnauthorized},
		{name: "feed with token", method: http.MethodGet, path: "/api/event/getevent?page=2", token: "good", wantStatus: http.StatusOK},
		{name: "bad token", method: http.MethodGet, path: "/api/event/getevent", token: "bad", wantStatus: http.StatusUnauthorized},
		{name: "photo is public", method: http.MethodGet, path: "/uploads/a.png", wantStatus: http.StatusOK},
		{name: "photo alias", method: http.MethodGet, path: "/api/user/photo/a.png", wantStatus: http.StatusOK},
		{name: "unknown photo", method: http.MethodGet, path: "/uploads/missing.png", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPatch, path: "/api/event/getevent", token: "good", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestRouter_LikeIsRateLimitedPerCaller(t *testing.T) {
	engagement := &stubEngagement{}
	router := newTestRouter(engagement)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/stat/like/ev-1", nil)
		req.Header.Set("x-auth-token", "good")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, engagement.calls)
}
