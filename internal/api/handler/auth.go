package handler

import (
	"net/http"

	"github.com/mcoot/s3arena/internal/api/request"
	"github.com/mcoot/s3arena/internal/api/response"
	"github.com/mcoot/s3arena/internal/metrics"
	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/services/account"
	"github.com/mcoot/s3arena/internal/services/auth"
)

// AuthHandler handles token and registration endpoints
type AuthHandler struct {
	authService    *auth.Service
	accountService *account.Service
	metrics        metrics.Recorder
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, accountService *account.Service, recorder metrics.Recorder) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		accountService: accountService,
		metrics:        recorder,
	}
}

// Login handles POST /api/auth/token/
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := request.Decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	pair, err := h.authService.Login(r.Context(), req.Username, req.Password)
	h.metrics.RecordLogin(err == nil)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TokenPairFromAuth(pair))
}

// Refresh handles POST /api/auth/token/refresh/
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req request.RefreshRequest
	if err := request.Decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	access, err := h.authService.Refresh(r.Context(), req.Refresh)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccessToken{Access: access})
}

// Register handles POST /api/auth/register/
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := request.Decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	reg := account.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	}
	if req.Profile != nil {
		reg.Sport = model.Sport(req.Profile.Sport)
	}

	user, err := h.accountService.Register(r.Context(), reg)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.UserFromModel(user))
}

// RegisterParent handles POST /api/auth/register/parent/
func (h *AuthHandler) RegisterParent(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterParentRequest
	if err := request.Decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.accountService.RegisterParent(r.Context(), account.ParentRegistration{
		Username:      req.Username,
		Email:         req.Email,
		Password:      req.Password,
		ChildPlayerID: req.ChildPlayerID,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.UserFromModel(user))
}
