package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/omgplatform/gameserver/internal/api/apierr"
	"github.com/omgplatform/gameserver/internal/api/request"
	"github.com/omgplatform/gameserver/internal/api/response"
	"github.com/omgplatform/gameserver/internal/services/user"
)

// dateLayout is the wire format for dateOfBirth
const dateLayout = "2006-01-02"

// UserHandler handles account endpoints
type UserHandler struct {
	userService *user.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *user.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register handles POST /users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	if req.DateOfBirth == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("dateOfBirth is required"))
		return
	}
	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("dateOfBirth must be YYYY-MM-DD"))
		return
	}

	created, err := h.userService.Register(r.Context(), user.RegisterParams{
		Username:    req.Username,
		Password:    req.Password,
		FullName:    req.FullName,
		DateOfBirth: dob,
	})
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RegisterResponse{Username: created.Username})
}

// Login handles POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	_, tok, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LoginResponse{Token: tok})
}

// List handles GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	resp := make([]response.User, 0, len(users))
	for _, u := range users {
		resp = append(resp, response.UserFromModel(u))
	}
	response.JSON(w, http.StatusOK, resp)
}
