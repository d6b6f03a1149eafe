package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/billing"
	"github.com/citypulse/citypulse/internal/model"
	"github.com/citypulse/citypulse/internal/store"
	"github.com/citypulse/citypulse/internal/websocket"
)

type PlanHandler struct {
	planStore *store.PlanStore
	billing   *billing.Client
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewPlanHandler(ps *store.PlanStore, bc *billing.Client, hub *websocket.Hub, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{planStore: ps, billing: bc, hub: hub, logger: logger}
}

// List handles GET /plans for the caller's city, drafts and deactivated
// plans included.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	cityID := auth.CityID(r.Context())
	plans, err := h.planStore.ListByCity(cityID)
	if err != nil {
		h.logger.Error("list plans", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}
	if plans == nil {
		plans = []model.Plan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

// Create handles POST /plans. The Stripe product and price are created
// first; the local row only exists once Stripe has a price to bill against.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	cityID := auth.CityID(r.Context())

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		PriceAmount int64  `json:"price_amount"`
		Interval    string `json:"interval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if len(req.Name) < 2 {
		writeError(w, http.StatusBadRequest, "name must be at least 2 characters")
		return
	}
	if req.PriceAmount <= 0 {
		writeError(w, http.StatusBadRequest, "price_amount must be positive")
		return
	}
	if req.Interval != model.IntervalMonth && req.Interval != model.IntervalYear {
		writeError(w, http.StatusBadRequest, "interval must be month or year")
		return
	}

	priceID, err := h.billing.CreateProductAndPrice(req.Name, req.Description, cityID, req.PriceAmount, req.Interval)
	if err != nil {
		h.logger.Error("create stripe price", "error", err)
		writeError(w, http.StatusBadGateway, "payment provider rejected the plan")
		return
	}

	plan, err := h.planStore.Create(cityID, req.Name, req.Description, req.PriceAmount, req.Interval, priceID)
	if err != nil {
		h.logger.Error("create plan", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create plan")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("plan", "created", plan.ID, map[string]any{"city_id": cityID}))
	writeJSON(w, http.StatusCreated, plan)
}

// Deactivate handles DELETE /plans/{id}. Plans are soft-deleted so existing
// subscriptions keep a valid reference; deactivated plans disappear from the
// public listing only.
func (h *PlanHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	cityID := auth.CityID(r.Context())
	id := r.PathValue("id")

	plan, err := h.planStore.GetOwned(id, cityID)
	if err != nil {
		h.logger.Error("get plan", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to deactivate plan")
		return
	}
	if plan == nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	if err := h.planStore.Deactivate(plan.ID); err != nil {
		h.logger.Error("deactivate plan", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to deactivate plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPublic handles GET /cities/{id}/plans: active plans only, cheapest
// first. No auth required.
func (h *PlanHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	cityID := r.PathValue("id")
	plans, err := h.planStore.ListActiveByCity(cityID)
	if err != nil {
		h.logger.Error("list public plans", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}
	if plans == nil {
		plans = []model.Plan{}
	}
	writeJSON(w, http.StatusOK, plans)
}
