package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/citypulse/citypulse/internal/model"
	"github.com/citypulse/citypulse/internal/store"
)

type CityHandler struct {
	cityStore *store.CityStore
	logger    *slog.Logger
}

func NewCityHandler(cs *store.CityStore, logger *slog.Logger) *CityHandler {
	return &CityHandler{cityStore: cs, logger: logger}
}

// Create handles POST /admin/cities.
func (h *CityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Country = strings.TrimSpace(req.Country)
	if len(req.Name) < 2 || len(req.Country) < 2 {
		writeError(w, http.StatusBadRequest, "name and country are required")
		return
	}

	city, err := h.cityStore.Create(req.Name, req.Country)
	if err != nil {
		h.logger.Error("create city", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create city")
		return
	}
	writeJSON(w, http.StatusCreated, city)
}

// List handles GET /admin/cities.
func (h *CityHandler) List(w http.ResponseWriter, r *http.Request) {
	cities, err := h.cityStore.List()
	if err != nil {
		h.logger.Error("list cities", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list cities")
		return
	}
	if cities == nil {
		cities = []model.City{}
	}
	writeJSON(w, http.StatusOK, cities)
}

// Update handles PATCH /admin/cities/{id}.
func (h *CityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Name    *string `json:"name"`
		Country *string `json:"country"`
		Status  *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var update store.CityUpdate
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 2 {
			writeError(w, http.StatusBadRequest, "name must be at least 2 characters")
			return
		}
		update.Name = &name
	}
	if req.Country != nil {
		country := strings.TrimSpace(*req.Country)
		if len(country) < 2 {
			writeError(w, http.StatusBadRequest, "country must be at least 2 characters")
			return
		}
		update.Country = &country
	}
	if req.Status != nil {
		if *req.Status != model.CityStatusActive && *req.Status != model.CityStatusInactive {
			writeError(w, http.StatusBadRequest, "status must be active or inactive")
			return
		}
		update.Status = req.Status
	}
	if update.Name == nil && update.Country == nil && update.Status == nil {
		writeError(w, http.StatusBadRequest, "no changes provided")
		return
	}

	city, err := h.cityStore.Update(id, update)
	if err != nil {
		h.logger.Error("update city", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update city")
		return
	}
	if city == nil {
		writeError(w, http.StatusNotFound, "city not found")
		return
	}
	writeJSON(w, http.StatusOK, city)
}

// Delete handles DELETE /admin/cities/{id}.
func (h *CityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.cityStore.Delete(r.PathValue("id"))
	if err != nil {
		h.logger.Error("delete city", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete city")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "city not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
