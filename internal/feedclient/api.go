package feedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"campusevents/internal/domain"
)

// FallbackMessage is shown when the server did not explain a failure.
const FallbackMessage = "Something went wrong. Please try again."

// FeedAPI is the slice of the REST API the feed controller consumes.
type FeedAPI interface {
	ListEvents(ctx context.Context, page int) ([]*domain.Event, error)
	ToggleLike(ctx context.Context, eventID, userID string) (*domain.LikeResult, error)
	AddComment(ctx context.Context, eventID, userID, text string) (*domain.Comment, error)
}

// APIError is a non-2xx response. Message is the server's error.message, if any.
type APIError struct {
	Status  int
	Code    string
	Message string
}

// errorBody is the "error" member of the response envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// Retryable reports whether repeating the request may succeed.
func (e *APIError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}

// Message returns the text to show a user for err: the server's message when
// there is one, otherwise FallbackMessage.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackMessage
}

type httpFeedAPI struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient returns a FeedAPI that talks to the server at baseURL,
// authenticating every request with token.
func NewHTTPClient(baseURL, token string, client *http.Client) FeedAPI {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpFeedAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

type feedPage struct {
	Page   int             `json:"page"`
	Events []*domain.Event `json:"events"`
}

func (a *httpFeedAPI) ListEvents(ctx context.Context, page int) ([]*domain.Event, error) {
	var out feedPage
	path := "/api/event/getevent?page=" + strconv.Itoa(page)
	if err := a.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (a *httpFeedAPI) ToggleLike(ctx context.Context, eventID, userID string) (*domain.LikeResult, error) {
	var out domain.LikeResult
	body := map[string]string{"userId": userID}
	if err := a.do(ctx, http.MethodPost, "/api/stat/like/"+url.PathEscape(eventID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *httpFeedAPI) AddComment(ctx context.Context, eventID, userID, text string) (*domain.Comment, error) {
	var out domain.Comment
	body := map[string]string{"userId": userID, "text": text}
	if err := a.do(ctx, http.MethodPost, "/api/stat/comment/"+url.PathEscape(eventID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *httpFeedAPI) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error *errorBody      `json:"error"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&envelope)

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil && envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
