package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/citypulse/citypulse/internal/model"
	"github.com/citypulse/citypulse/internal/store"
)

type PublisherHandler struct {
	publisherStore *store.PublisherStore
	cityStore      *store.CityStore
	logger         *slog.Logger
}

func NewPublisherHandler(ps *store.PublisherStore, cs *store.CityStore, logger *slog.Logger) *PublisherHandler {
	return &PublisherHandler{publisherStore: ps, cityStore: cs, logger: logger}
}

// Create handles POST /admin/publishers. The owner user and publisher are
// created atomically; a city can hold at most one publisher.
func (h *PublisherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CityID        string `json:"city_id"`
		Name          string `json:"name"`
		Email         string `json:"email"`
		Password      string `json:"password"`
		LicenseStatus string `json:"license_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.CityID == "" || len(req.Name) < 2 {
		writeError(w, http.StatusBadRequest, "city_id and name are required")
		return
	}
	if !validEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	if req.LicenseStatus == "" {
		req.LicenseStatus = model.LicenseActive
	}
	if !model.ValidLicenseStatus(req.LicenseStatus) {
		writeError(w, http.StatusBadRequest, "invalid license_status")
		return
	}

	city, err := h.cityStore.GetByID(req.CityID)
	if err != nil {
		h.logger.Error("get city", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create publisher")
		return
	}
	if city == nil {
		writeError(w, http.StatusNotFound, "city not found")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create publisher")
		return
	}

	pub, err := h.publisherStore.CreateWithOwner(req.CityID, req.Name, req.Email, string(hash), req.LicenseStatus)
	if errors.Is(err, store.ErrCityHasPublisher) {
		writeError(w, http.StatusConflict, "city already has a publisher")
		return
	}
	if errors.Is(err, store.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		h.logger.Error("create publisher", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create publisher")
		return
	}

	writeJSON(w, http.StatusCreated, pub)
}

// List handles GET /admin/publishers.
func (h *PublisherHandler) List(w http.ResponseWriter, r *http.Request) {
	pubs, err := h.publisherStore.List()
	if err != nil {
		h.logger.Error("list publishers", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list publishers")
		return
	}
	if pubs == nil {
		pubs = []model.Publisher{}
	}
	writeJSON(w, http.StatusOK, pubs)
}

// Update handles PATCH /admin/publishers/{id}.
func (h *PublisherHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Name          *string `json:"name"`
		LicenseStatus *string `json:"license_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var update store.PublisherUpdate
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 2 {
			writeError(w, http.StatusBadRequest, "name must be at least 2 characters")
			return
		}
		update.Name = &name
	}
	if req.LicenseStatus != nil {
		if !model.ValidLicenseStatus(*req.LicenseStatus) {
			writeError(w, http.StatusBadRequest, "invalid license_status")
			return
		}
		update.LicenseStatus = req.LicenseStatus
	}
	if update.Name == nil && update.LicenseStatus == nil {
		writeError(w, http.StatusBadRequest, "no changes provided")
		return
	}

	pub, err := h.publisherStore.Update(id, update)
	if err != nil {
		h.logger.Error("update publisher", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update publisher")
		return
	}
	if pub == nil {
		writeError(w, http.StatusNotFound, "publisher not found")
		return
	}
	writeJSON(w, http.StatusOK, pub)
}
