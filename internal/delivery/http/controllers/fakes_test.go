package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeFeedService implements domain.FeedService for handler tests.
type fakeFeedService struct {
	events      []*domain.Event
	event       *domain.Event
	err         error
	lastPage    int
	lastCaller  string
	lastID      string
	lastPatch   domain.EventPatch
	lastCreated *domain.Event
}

func (f *fakeFeedService) ListEvents(ctx context.Context, page int) ([]*domain.Event, error) {
	f.lastPage = page
	return f.events, f.err
}

func (f *fakeFeedService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	f.lastID = id
	return f.event, f.err
}

func (f *fakeFeedService) ListMine(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	f.lastCaller = organizerID
	return f.events, f.err
}

func (f *fakeFeedService) CreateEvent(ctx context.Context, organizerID string, event *domain.Event) error {
	f.lastCaller = organizerID
	f.lastCreated = event
	if f.err != nil {
		return f.err
	}
	event.ID = "ev-created"
	return nil
}

func (f *fakeFeedService) UpdateEvent(ctx context.Context, id, callerID string, patch domain.EventPatch) (*domain.Event, error) {
	f.lastID, f.lastCaller, f.lastPatch = id, callerID, patch
	return f.event, f.err
}

func (f *fakeFeedService) DeleteEvent(ctx context.Context, id, callerID string) error {
	f.lastID, f.lastCaller = id, callerID
	return f.err
}

// fakeEngagementService implements domain.EngagementService.
type fakeEngagementService struct {
	like         *domain.LikeResult
	comment      *domain.Comment
	err          error
	lastEvent    string
	lastUser     string
	lastText     string
	likeCalls    int
	commentCalls int
}

func (f *fakeEngagementService) ToggleLike(ctx context.Context, eventID, userID string) (*domain.LikeResult, error) {
	f.likeCalls++
	f.lastEvent, f.lastUser = eventID, userID
	return f.like, f.err
}

func (f *fakeEngagementService) AddComment(ctx context.Context, eventID, userID, text string) (*domain.Comment, error) {
	f.commentCalls++
	f.lastEvent, f.lastUser, f.lastText = eventID, userID, text
	return f.comment, f.err
}

// fakeProfileService implements domain.ProfileService.
type fakeProfileService struct {
	profile      *domain.Profile
	profiles     []*domain.Profile
	photo        []byte
	err          error
	lastUser     string
	lastTarget   string
	lastUpdate   domain.ProfileUpdate
	lastFilename string
	lastUpload   []byte
}

func (f *fakeProfileService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	f.lastUser = userID
	return f.profile, f.err
}

func (f *fakeProfileService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	f.lastUser, f.lastUpdate = userID, update
	return f.profile, f.err
}

func (f *fakeProfileService) UpdatePhoto(ctx context.Context, userID, filename string, r io.Reader) (*domain.Profile, error) {
	f.lastUser, f.lastFilename = userID, filename
	f.lastUpload, _ = io.ReadAll(r)
	return f.profile, f.err
}

func (f *fakeProfileService) ListSuggestions(ctx context.Context, userID string) ([]*domain.Profile, error) {
	f.lastUser = userID
	return f.profiles, f.err
}

func (f *fakeProfileService) AddConnection(ctx context.Context, userID, targetID string) error {
	f.lastUser, f.lastTarget = userID, targetID
	return f.err
}

func (f *fakeProfileService) OpenPhoto(ctx context.Context, name string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.photo)), nil
}

// serve dispatches req through a ServeMux so PathValue works, optionally authenticated.
func serve(t *testing.T, pattern string, handler http.HandlerFunc, req *http.Request, userID string) *httptest.ResponseRecorder {
	t.Helper()
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) *helpers.APIError {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be valid JSON envelope")
	if data != nil && envelope.Error == nil {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return envelope.Error
}
