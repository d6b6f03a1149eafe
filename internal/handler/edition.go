package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/model"
	"github.com/citypulse/citypulse/internal/push"
	"github.com/citypulse/citypulse/internal/storage"
	"github.com/citypulse/citypulse/internal/store"
	"github.com/citypulse/citypulse/internal/websocket"
)

// maxUploadBytes caps a single edition upload (PDF plus cover).
const maxUploadBytes = 50 << 20

type EditionHandler struct {
	editionStore   *store.EditionStore
	publisherStore *store.PublisherStore
	cityStore      *store.CityStore
	uploader       *storage.Uploader
	fanout         *push.Fanout
	hub            *websocket.Hub
	logger         *slog.Logger
}

func NewEditionHandler(es *store.EditionStore, ps *store.PublisherStore, cs *store.CityStore, up *storage.Uploader, fo *push.Fanout, hub *websocket.Hub, logger *slog.Logger) *EditionHandler {
	return &EditionHandler{
		editionStore:   es,
		publisherStore: ps,
		cityStore:      cs,
		uploader:       up,
		fanout:         fo,
		hub:            hub,
		logger:         logger,
	}
}

// publisherForRequest resolves the publisher owning the request's city scope.
// Returns nil when the city has no publisher; a response has been written in
// the error case.
func (h *EditionHandler) publisherForRequest(w http.ResponseWriter, r *http.Request) *model.Publisher {
	cityID := auth.CityID(r.Context())
	pub, err := h.publisherStore.GetByCityID(cityID)
	if err != nil {
		h.logger.Error("get publisher for city", "city_id", cityID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve publisher")
		return nil
	}
	if pub == nil {
		writeError(w, http.StatusNotFound, "no publisher for this city")
		return nil
	}
	return pub
}

// List handles GET /editions for the caller's city, drafts included.
func (h *EditionHandler) List(w http.ResponseWriter, r *http.Request) {
	pub := h.publisherForRequest(w, r)
	if pub == nil {
		return
	}
	editions, err := h.editionStore.ListByPublisher(pub.ID)
	if err != nil {
		h.logger.Error("list editions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list editions")
		return
	}
	if editions == nil {
		editions = []model.Edition{}
	}
	writeJSON(w, http.StatusOK, editions)
}

// Create handles POST /editions as multipart form data: title, description,
// a required pdf file and an optional cover image. Files go to object
// storage; the row stores the resulting URLs.
func (h *EditionHandler) Create(w http.ResponseWriter, r *http.Request) {
	pub := h.publisherForRequest(w, r)
	if pub == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if len(title) < 2 {
		writeError(w, http.StatusBadRequest, "title must be at least 2 characters")
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))

	pdfURL, err := h.storeUpload(r.Context(), r, "pdf", pub.ID, "application/pdf")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if pdfURL == "" {
		writeError(w, http.StatusBadRequest, "pdf file is required")
		return
	}

	coverURL, err := h.storeUpload(r.Context(), r, "cover", pub.ID, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	edition, err := h.editionStore.Create(pub.ID, title, description, pdfURL, coverURL, nil)
	if err != nil {
		h.logger.Error("create edition", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create edition")
		return
	}
	writeJSON(w, http.StatusCreated, edition)
}

// storeUpload uploads the named form file if present and returns its public
// URL. Missing file is not an error; the caller decides whether the field is
// required.
func (h *EditionHandler) storeUpload(ctx context.Context, r *http.Request, field, publisherID, wantType string) (string, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("invalid %s upload", field)
	}
	defer file.Close()

	if !h.uploader.Enabled() {
		return "", fmt.Errorf("file storage is not configured")
	}

	body, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read %s upload", field)
	}

	contentType := uploadContentType(header, wantType)
	if wantType != "" && contentType != wantType {
		return "", fmt.Errorf("%s must be %s", field, wantType)
	}

	key := fmt.Sprintf("editions/%s/%d_%s", publisherID, time.Now().UnixNano(), filepath.Base(header.Filename))
	url, err := h.uploader.Upload(ctx, key, contentType, body)
	if err != nil {
		h.logger.Error("upload edition file", "field", field, "error", err)
		return "", fmt.Errorf("failed to store %s upload", field)
	}
	return url, nil
}

func uploadContentType(header *multipart.FileHeader, fallback string) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return fallback
}

// Update handles PATCH /editions/{id}: metadata-only edits on drafts or
// published editions.
func (h *EditionHandler) Update(w http.ResponseWriter, r *http.Request) {
	pub := h.publisherForRequest(w, r)
	if pub == nil {
		return
	}
	cityID := auth.CityID(r.Context())
	id := r.PathValue("id")

	existing, err := h.editionStore.GetOwned(id, cityID)
	if err != nil {
		h.logger.Error("get edition", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update edition")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "edition not found")
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var update store.EditionUpdate
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if len(title) < 2 {
			writeError(w, http.StatusBadRequest, "title must be at least 2 characters")
			return
		}
		update.Title = &title
	}
	if req.Description != nil {
		update.Description = req.Description
	}
	if update.Title == nil && update.Description == nil {
		writeError(w, http.StatusBadRequest, "no changes provided")
		return
	}

	edition, err := h.editionStore.Update(id, update)
	if err != nil {
		h.logger.Error("update edition", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update edition")
		return
	}
	writeJSON(w, http.StatusOK, edition)
}

// Publish handles POST /editions/{id}/publish. The status flip is
// synchronous; push fan-out to the city's subscribers runs in the background
// and never affects the response.
func (h *EditionHandler) Publish(w http.ResponseWriter, r *http.Request) {
	pub := h.publisherForRequest(w, r)
	if pub == nil {
		return
	}
	cityID := auth.CityID(r.Context())
	id := r.PathValue("id")

	edition, err := h.editionStore.GetOwned(id, cityID)
	if err != nil {
		h.logger.Error("get edition", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to publish edition")
		return
	}
	if edition == nil {
		writeError(w, http.StatusNotFound, "edition not found")
		return
	}
	if edition.Status == model.EditionPublished {
		writeError(w, http.StatusConflict, "edition is already published")
		return
	}

	if err := h.editionStore.Publish(edition.ID); err != nil {
		h.logger.Error("publish edition", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to publish edition")
		return
	}

	city, err := h.cityStore.GetByID(cityID)
	if err != nil {
		h.logger.Error("get city for publish notification", "error", err)
	}
	cityName := cityID
	if city != nil {
		cityName = city.Name
	}

	go h.notifySubscribers(cityID, cityName, edition)

	h.hub.Broadcast(websocket.NewMessage("edition", "published", edition.ID, map[string]any{"city_id": cityID}))

	published, err := h.editionStore.GetByID(edition.ID)
	if err != nil || published == nil {
		writeJSON(w, http.StatusOK, edition)
		return
	}
	writeJSON(w, http.StatusOK, published)
}

func (h *EditionHandler) notifySubscribers(cityID, cityName string, edition *model.Edition) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sent, err := h.fanout.NotifyCity(ctx, cityID, push.Payload{
		Title: fmt.Sprintf("New edition in %s", cityName),
		Body:  edition.Title,
		URL:   fmt.Sprintf("/editions/%s", edition.ID),
		Tag:   "edition-" + edition.ID,
	})
	if err != nil {
		h.logger.Warn("edition push fan-out finished with failures", "edition_id", edition.ID, "sent", sent, "error", err)
		return
	}
	h.logger.Info("edition push fan-out complete", "edition_id", edition.ID, "sent", sent)
}

// Delete handles DELETE /editions/{id}.
func (h *EditionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	pub := h.publisherForRequest(w, r)
	if pub == nil {
		return
	}
	cityID := auth.CityID(r.Context())
	id := r.PathValue("id")

	edition, err := h.editionStore.GetOwned(id, cityID)
	if err != nil {
		h.logger.Error("get edition", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete edition")
		return
	}
	if edition == nil {
		writeError(w, http.StatusNotFound, "edition not found")
		return
	}

	if err := h.editionStore.Delete(edition.ID); err != nil {
		h.logger.Error("delete edition", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete edition")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPublic handles GET /editions/{id}: published editions only, with
// publisher and city names joined for display.
func (h *EditionHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	edition, err := h.editionStore.GetPublic(id)
	if err != nil {
		h.logger.Error("get public edition", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load edition")
		return
	}
	if edition == nil {
		writeError(w, http.StatusNotFound, "edition not found")
		return
	}
	writeJSON(w, http.StatusOK, edition)
}
