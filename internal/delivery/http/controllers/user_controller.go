package controllers

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// MaxPhotoBytes bounds profile photo uploads.
const MaxPhotoBytes = 5 << 20

// UpdateDetailsRequest is the request body for PUT /api/user/details.
type UpdateDetailsRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Validate implements Validator.
func (u UpdateDetailsRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(u.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(u.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	return errs
}

// ProfileSuccessResponse is the success envelope for profile responses.
type ProfileSuccessResponse struct {
	Data  *domain.Profile   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ProfileListSuccessResponse is the success envelope for GET /api/user/suggestions.
type ProfileListSuccessResponse struct {
	Data  []*domain.Profile `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type UserController struct {
	Logger  *slog.Logger
	Service domain.ProfileService
}

func NewUserController(logger *slog.Logger, svc domain.ProfileService) *UserController {
	return &UserController{
		Logger:  logger,
		Service: svc,
	}
}

// GetDetails godoc
// @Summary Get my profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ProfileSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/user/details [get]
func (c *UserController) GetDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	profile, err := c.Service.GetProfile(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, profile)
}

// UpdateDetails godoc
// @Summary Update my profile
// @Description Updates first and last name. Email changes are accepted only when the deployment allows them; an email in use by someone else returns 409.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateDetailsRequest true "Profile fields"
// @Success 200 {object} controllers.ProfileSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/user/details [put]
func (c *UserController) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req UpdateDetailsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	profile, err := c.Service.UpdateProfile(r.Context(), userID, domain.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, profile)
}

// UpdatePhoto godoc
// @Summary Replace my profile photo
// @Description Multipart upload in field "photo" (png, jpg, jpeg, gif or webp, at most 5 MiB). The previous photo is removed.
// @Tags users
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param photo formData file true "Image file"
// @Success 200 {object} controllers.ProfileSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/user/update-photo [put]
func (c *UserController) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxPhotoBytes+1<<10)
	file, header, err := r.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "photo is too large")
			return
		}
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	profile, err := c.Service.UpdatePhoto(r.Context(), userID, header.Filename, file)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, profile)
}

// ListSuggestions godoc
// @Summary Suggested connections
// @Description Other users ordered by name, never including the caller.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ProfileListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/user/suggestions [get]
func (c *UserController) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	profiles, err := c.Service.ListSuggestions(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, profiles)
}

// AddConnection godoc
// @Summary Connect with a user
// @Description Adds the user to the caller's connections. Repeating the call is a no-op.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID to connect with"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/user/add-connection/{id} [post]
func (c *UserController) AddConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Service.AddConnection(r.Context(), userID, r.PathValue("id")); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServePhoto godoc
// @Summary Download a profile photo
// @Tags users
// @Produce image/png,image/jpeg,image/gif,image/webp
// @Param filename path string true "Stored photo name"
// @Success 200 {file} file
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /api/user/photo/{filename} [get]
func (c *UserController) ServePhoto(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	rc, err := c.Service.OpenPhoto(r.Context(), name)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, rc); err != nil {
		c.Logger.WarnContext(r.Context(), "photo stream interrupted", "photo", name, "err", err)
	}
}
