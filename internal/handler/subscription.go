package handler

import (
	"log/slog"
	"net/http"

	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/model"
	"github.com/citypulse/citypulse/internal/store"
)

type SubscriptionHandler struct {
	subscriptionStore *store.SubscriptionStore
	logger            *slog.Logger
}

func NewSubscriptionHandler(ss *store.SubscriptionStore, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionStore: ss, logger: logger}
}

// List handles GET /subscriptions: the caller's own subscriptions, newest
// first.
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	subs, err := h.subscriptionStore.ListByUser(userID)
	if err != nil {
		h.logger.Error("list subscriptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	if subs == nil {
		subs = []model.Subscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}
