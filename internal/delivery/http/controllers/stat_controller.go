package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// LikeRequest is the optional request body for POST /api/stat/like/{eventId}.
type LikeRequest struct {
	UserID string `json:"userId"`
}

// CommentRequest is the request body for POST /api/stat/comment/{eventId}.
type CommentRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

// Validate implements Validator.
func (c CommentRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Text) == "" {
		errs = append(errs, "text is required")
	}
	return errs
}

// LikeSuccessResponse is the success envelope for POST /api/stat/like/{eventId}.
type LikeSuccessResponse struct {
	Data  *domain.LikeResult `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// CommentSuccessResponse is the success envelope for POST /api/stat/comment/{eventId}.
type CommentSuccessResponse struct {
	Data  *domain.Comment   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type StatController struct {
	Logger  *slog.Logger
	Service domain.EngagementService
}

func NewStatController(logger *slog.Logger, svc domain.EngagementService) *StatController {
	return &StatController{
		Logger:  logger,
		Service: svc,
	}
}

// ToggleLike godoc
// @Summary Toggle a like
// @Description Likes the event if the caller has not liked it, otherwise removes the like. Returns the stored like count and state.
// @Tags stats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param body body LikeRequest false "Optional; userId must match the caller"
// @Success 200 {object} controllers.LikeSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/stat/like/{eventId} [post]
func (c *StatController) ToggleLike(w http.ResponseWriter, r *http.Request) {
	var req LikeRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok || !matchesCaller(w, req.UserID, userID) {
		return
	}
	result, err := c.Service.ToggleLike(r.Context(), r.PathValue("eventId"), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// AddComment godoc
// @Summary Comment on an event
// @Description Appends a comment authored by the caller. Comments cannot be edited or deleted.
// @Tags stats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param body body CommentRequest true "Comment"
// @Success 201 {object} controllers.CommentSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/stat/comment/{eventId} [post]
func (c *StatController) AddComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok || !matchesCaller(w, req.UserID, userID) {
		return
	}
	comment, err := c.Service.AddComment(r.Context(), r.PathValue("eventId"), userID, req.Text)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, comment)
}
