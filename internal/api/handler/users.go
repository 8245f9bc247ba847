package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mcoot/s3arena/internal/api/apierr"
	"github.com/mcoot/s3arena/internal/api/middleware"
	"github.com/mcoot/s3arena/internal/api/request"
	"github.com/mcoot/s3arena/internal/api/response"
	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/services/account"
)

// MaxPhotoBytes bounds a multipart photo upload
const MaxPhotoBytes = 10 << 20

// UserHandler handles user and profile endpoints
type UserHandler struct {
	accountService *account.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(accountService *account.Service) *UserHandler {
	return &UserHandler{accountService: accountService}
}

// List handles GET /api/users/ with an optional ?sport= filter
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	sport := model.Sport(r.URL.Query().Get("sport"))

	users, err := h.accountService.ListUsers(r.Context(), sport)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UsersFromModel(users))
}

// Get handles GET /api/users/{id}/
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.accountService.GetUser(r.Context(), model.UserID(id))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}

// Update handles PATCH /api/users/{id}/.
// Multipart bodies may carry a photo file and an email field; JSON bodies
// carry field updates only.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}
	userID := model.UserID(id)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.updateMultipart(w, r, identity.UserID, userID)
		return
	}

	var req request.UpdateUserRequest
	if err := request.Decode(r, &req, true); err != nil {
		WriteError(w, err)
		return
	}

	patch, err := patchFrom(req)
	if err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.accountService.Update(r.Context(), identity.UserID, userID, patch)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}

func (h *UserHandler) updateMultipart(w http.ResponseWriter, r *http.Request, actorID, userID model.UserID) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxPhotoBytes)
	if err := r.ParseMultipartForm(MaxPhotoBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, apierr.NewFieldError("photo", "The submitted file is too large."))
			return
		}
		WriteError(w, apierr.NewInvalidRequestError("Multipart form parse error - "+err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := request.UpdateUserRequest{}
	if v, ok := r.MultipartForm.Value["email"]; ok && len(v) > 0 {
		req.Email = &v[0]
	}
	if v, ok := r.MultipartForm.Value["membership_start_date"]; ok && len(v) > 0 {
		req.MembershipStartDate = &v[0]
	}
	if v, ok := r.MultipartForm.Value["membership_end_date"]; ok && len(v) > 0 {
		req.MembershipEndDate = &v[0]
	}
	if err := request.Validate(&req); err != nil {
		WriteError(w, err)
		return
	}

	patch, err := patchFrom(req)
	if err != nil {
		WriteError(w, err)
		return
	}

	if file, _, err := r.FormFile("photo"); err == nil {
		defer func() { _ = file.Close() }()
		patch.Photo = file
	} else if !errors.Is(err, http.ErrMissingFile) {
		WriteError(w, apierr.NewFieldError("photo", "The submitted data was not a file."))
		return
	}

	user, err := h.accountService.Update(r.Context(), actorID, userID, patch)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}

func patchFrom(req request.UpdateUserRequest) (account.Patch, error) {
	start, err := request.ParseDate("membership_start_date", req.MembershipStartDate)
	if err != nil {
		return account.Patch{}, err
	}
	end, err := request.ParseDate("membership_end_date", req.MembershipEndDate)
	if err != nil {
		return account.Patch{}, err
	}
	return account.Patch{
		Email:           req.Email,
		MembershipStart: start,
		MembershipEnd:   end,
	}, nil
}

// ListProfiles handles GET /api/profiles/
func (h *UserHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.accountService.ListProfiles(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfilesFromModel(profiles))
}
