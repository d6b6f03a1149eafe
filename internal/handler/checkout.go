package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/billing"
	"github.com/citypulse/citypulse/internal/store"
)

type CheckoutHandler struct {
	planStore *store.PlanStore
	billing   *billing.Client
	baseURL   string
	logger    *slog.Logger
}

func NewCheckoutHandler(ps *store.PlanStore, bc *billing.Client, baseURL string, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{planStore: ps, billing: bc, baseURL: baseURL, logger: logger}
}

// Create handles POST /checkout. It returns the hosted payment page URL and
// writes nothing locally; the subscription row appears only once the
// provider confirms payment through the webhook.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		PlanID string `json:"plan_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		writeError(w, http.StatusBadRequest, "plan_id is required")
		return
	}

	plan, err := h.planStore.GetByID(req.PlanID)
	if err != nil {
		h.logger.Error("get plan for checkout", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start checkout")
		return
	}
	if plan == nil || !plan.IsActive {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	url, err := h.billing.CreateCheckoutSession(billing.CheckoutParams{
		PriceID:       plan.StripePriceID,
		CustomerEmail: auth.Email(r.Context()),
		UserID:        userID,
		PlanID:        plan.ID,
		CityID:        plan.CityID,
		SuccessURL:    h.baseURL + "/subscribe/success",
		CancelURL:     h.baseURL + "/subscribe/cancel",
	})
	if err != nil {
		h.logger.Error("create checkout session", "error", err)
		writeError(w, http.StatusBadGateway, "payment provider unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"checkout_url": url})
}
