package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/model"
	"github.com/citypulse/citypulse/internal/store"
)

type AuthHandler struct {
	userStore      *store.UserStore
	publisherStore *store.PublisherStore
	tokens         *auth.TokenService
	logger         *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ps *store.PublisherStore, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{userStore: us, publisherStore: ps, tokens: tokens, logger: logger}
}

type authResponse struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

type userView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"full_name,omitempty"`
	CityID   string `json:"city_id,omitempty"`
}

// Signup handles POST /auth/signup. Self-service signup creates READER
// accounts; publisher accounts only come from admin provisioning.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	exists, err := h.userStore.EmailExists(req.Email)
	if err != nil {
		h.logger.Error("check email", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	user, err := h.userStore.Create(req.Email, string(hash), strings.TrimSpace(req.FullName), model.RoleReader)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		User:  userView{ID: user.ID, Email: user.Email, Role: user.Role, FullName: user.FullName},
		Token: token,
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.userStore.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		User:  h.userViewWithCity(user),
		Token: token,
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no token provided")
		return
	}

	user, err := h.userStore.GetByID(userID)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]userView{"user": h.userViewWithCity(user)})
}

// userViewWithCity resolves the publisher's city. This is a lookup, not a
// trust decision: tenant scope for authorization still comes from the
// request itself.
func (h *AuthHandler) userViewWithCity(user *model.User) userView {
	v := userView{ID: user.ID, Email: user.Email, Role: user.Role, FullName: user.FullName}
	if user.Role == model.RolePublisher {
		if pub, err := h.publisherStore.GetByOwnerID(user.ID); err == nil && pub != nil {
			v.CityID = pub.CityID
		}
	}
	return v
}
