package feedclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_ListEvents(t *testing.T) {
	var gotAuth, gotPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPage = r.URL.Query().Get("page")
		assert.Equal(t, "/api/event/getevent", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"page":2,"events":[{"id":"e1","title":"Hack Night","likes":["u1"],"comments":[]}]},"error":null}`)
	}))
	defer srv.Close()

	api := NewHTTPClient(srv.URL+"/", "tok", srv.Client())
	events, err := api.ListEvents(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, []string{"u1"}, events[0].Likes)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "2", gotPage)
}

func TestHTTPClient_ToggleLikeSendsUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/stat/like/e 1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"userId": "u1"}, body)
		_, _ = io.WriteString(w, `{"data":{"likes":3,"liked":true},"error":null}`)
	}))
	defer srv.Close()

	res, err := NewHTTPClient(srv.URL, "tok", nil).ToggleLike(context.Background(), "e 1", "u1")

	require.NoError(t, err)
	assert.Equal(t, 3, res.Likes)
	assert.True(t, res.Liked)
}

func TestHTTPClient_AddComment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["text"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"author_id":"u1","text":"hello","timestamp":"2025-03-01T12:00:00Z"},"error":null}`)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, "tok", nil).AddComment(context.Background(), "e1", "u1", "hello")

	require.NoError(t, err)
	assert.Equal(t, "u1", c.AuthorID)
	assert.Equal(t, 2025, c.Timestamp.Year())
}

func TestHTTPClient_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantMessage   string
		wantCode      string
		wantRetryable bool
	}{
		{name: "server message surfaced", status: http.StatusForbidden, body: `{"data":null,"error":{"code":"forbidden","message":"userId does not match the authenticated user"}}`, wantMessage: "userId does not match the authenticated user", wantCode: "forbidden"},
		{name: "code without message", status: http.StatusNotFound, body: `{"error":{"code":"not_found"}}`, wantMessage: FallbackMessage, wantCode: "not_found"},
		{name: "non-json error body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantMessage: FallbackMessage, wantRetryable: true},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"data":null,"error":{"code":"too_many_requests","message":"too many requests"}}`, wantMessage: "too many requests", wantCode: "too_many_requests", wantRetryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL, "tok", nil).ListEvents(context.Background(), 1)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantRetryable, apiErr.Retryable())
			assert.Equal(t, tt.wantMessage, Message(err))
		})
	}
}

func TestHTTPClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewHTTPClient(srv.URL, "tok", nil).ListEvents(context.Background(), 1)

	require.Error(t, err)
	assert.True(t, retryable(err))
	assert.Equal(t, FallbackMessage, Message(err))
}
