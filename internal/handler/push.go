package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/push"
	"github.com/citypulse/citypulse/internal/store"
)

type PushHandler struct {
	pushStore *store.PushStore
	service   *push.Service
	logger    *slog.Logger
}

func NewPushHandler(ps *store.PushStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, service: svc, logger: logger}
}

// Subscribe handles POST /push/subscriptions: registers a browser push
// subscription for the caller. Re-registering the same endpoint is a no-op.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	sub, err := h.pushStore.Upsert(userID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		h.logger.Error("upsert push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register push subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /push/subscriptions. Only the caller's own
// registration can be removed; another user's endpoint is untouched and the
// response does not reveal whether it exists.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}
	if _, err := h.pushStore.DeleteForUser(userID, req.Endpoint); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove push subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Config handles GET /push/config: the public VAPID key browsers need to
// subscribe. No auth required.
func (h *PushHandler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"vapid_public_key": h.service.VAPIDPublicKey(),
	})
}
