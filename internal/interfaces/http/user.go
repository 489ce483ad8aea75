package http

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"bridgesync/internal/domain/user"
	bridgeclient "bridgesync/internal/infrastructure/bridge"
	"bridgesync/internal/shared/middleware"
)

type UserHandler struct {
	users     *user.Service
	validator *Validator
}

func NewUserHandler(users *user.Service, validator *Validator) *UserHandler {
	return &UserHandler{users: users, validator: validator}
}

type CreateUserRequest struct {
	Email          string  `json:"email"`
	ExternalUserID *string `json:"externalUserId"`
}

type ConnectSessionRequest struct {
	UserUUID     string  `json:"userUuid"`
	UserEmail    *string `json:"userEmail"`
	RedirectURL  *string `json:"redirectUrl"`
	PrefillEmail *string `json:"prefillEmail"`
}

// HandleCreateUser provisions a provider user, or returns the existing one
// for a known email.
func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decode(r, h.validator.createUser, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.users.Provision(r.Context(), req.Email, req.ExternalUserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByUUID(r.Context(), r.PathValue("uuid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) HandleGetUserByEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByEmail(r.Context(), r.PathValue("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// HandleIssueToken returns a fresh delegated-access token for a stored user.
func (h *UserHandler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	uuid := r.PathValue("uuid")
	if _, err := h.users.GetByUUID(r.Context(), uuid); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.users.IssueToken(r.Context(), uuid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// HandleConnectSession starts an account-linking session. Requires BearerToken.
func (h *UserHandler) HandleConnectSession(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.AccessToken(r.Context())

	var req ConnectSessionRequest
	if err := decode(r, h.validator.connectSession, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.users.CreateConnectSession(r.Context(), token, bridgeclient.ConnectSessionRequest{
		UserUUID:     req.UserUUID,
		UserEmail:    req.UserEmail,
		RedirectURL:  req.RedirectURL,
		PrefillEmail: req.PrefillEmail,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Info().Str("user_uuid", req.UserUUID).Str("session_uuid", session.UUID).Msg("connect session created")
	writeJSON(w, http.StatusOK, session)
}
