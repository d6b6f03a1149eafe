package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/citypulse/citypulse/internal/billing"
	"github.com/citypulse/citypulse/internal/model"
	"github.com/citypulse/citypulse/internal/store"
	"github.com/citypulse/citypulse/internal/websocket"
)

// maxWebhookBytes bounds how much of a webhook body is read before
// signature verification.
const maxWebhookBytes = 65536

type WebhookHandler struct {
	billing           *billing.Client
	subscriptionStore *store.SubscriptionStore
	eventStore        *store.WebhookEventStore
	hub               *websocket.Hub
	logger            *slog.Logger
}

func NewWebhookHandler(bc *billing.Client, ss *store.SubscriptionStore, es *store.WebhookEventStore, hub *websocket.Hub, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing:           bc,
		subscriptionStore: ss,
		eventStore:        es,
		hub:               hub,
		logger:            logger,
	}
}

// HandleStripeWebhook verifies the signature over the raw body before
// touching any state. After verification the event is acknowledged with 200
// even when applying it locally fails; the provider's retries are pointless
// once the failure is on our side, and the audit row keeps the failure
// visible.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	event, err := h.billing.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature rejected", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(event)
	case "customer.subscription.updated":
		h.handleSubscriptionChanged(event, "")
	case "customer.subscription.deleted":
		h.handleSubscriptionChanged(event, model.SubStatusCanceled)
	default:
		h.audit(event, model.EventSkipped, "unhandled event type")
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleCheckoutCompleted(event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("webhook: unmarshal checkout session", "error", err)
		h.audit(event, model.EventFailed, "unmarshal checkout session")
		return
	}

	userID := sess.Metadata["user_id"]
	planID := sess.Metadata["plan_id"]
	if userID == "" || planID == "" {
		// A session created outside this platform. Not an error, but
		// nothing to reconcile against.
		h.logger.Warn("webhook: checkout session missing metadata", "event_id", event.ID)
		h.audit(event, model.EventSkipped, "missing user_id/plan_id metadata")
		return
	}
	if sess.Subscription == nil {
		h.audit(event, model.EventSkipped, "checkout session has no subscription")
		return
	}

	var customerID string
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}

	created, err := h.subscriptionStore.CreateFromCheckout(
		userID, planID, sess.Subscription.ID, customerID, time.Time{}, event.Created,
	)
	if err != nil {
		h.logger.Error("webhook: create subscription", "event_id", event.ID, "error", err)
		h.audit(event, model.EventFailed, err.Error())
		return
	}
	if !created {
		h.audit(event, model.EventSkipped, "subscription already exists")
		return
	}

	h.audit(event, model.EventProcessed, "")
	h.hub.Broadcast(websocket.NewMessage("subscription", "created", sess.Subscription.ID, map[string]any{
		"plan_id": planID,
		"city_id": sess.Metadata["city_id"],
	}))
	h.logger.Info("webhook: subscription created", "stripe_subscription_id", sess.Subscription.ID)
}

// handleSubscriptionChanged applies a provider-side status change. When
// forceStatus is empty the provider's status is used. Unknown subscription
// ids and events older than the last applied one are no-ops.
func (h *WebhookHandler) handleSubscriptionChanged(event stripe.Event, forceStatus string) {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		h.logger.Error("webhook: unmarshal subscription", "error", err)
		h.audit(event, model.EventFailed, "unmarshal subscription")
		return
	}

	status := forceStatus
	if status == "" {
		status = string(stripeSub.Status)
	}

	// Deletion events and sparse payloads may carry no line items at all.
	var periodEnd *time.Time
	if stripeSub.Items != nil && len(stripeSub.Items.Data) > 0 && stripeSub.Items.Data[0].CurrentPeriodEnd > 0 {
		t := time.Unix(stripeSub.Items.Data[0].CurrentPeriodEnd, 0).UTC()
		periodEnd = &t
	}

	applied, err := h.subscriptionStore.ApplyProviderUpdate(stripeSub.ID, status, periodEnd, event.Created)
	if err != nil {
		h.logger.Error("webhook: apply subscription update", "event_id", event.ID, "error", err)
		h.audit(event, model.EventFailed, err.Error())
		return
	}
	if !applied {
		h.audit(event, model.EventSkipped, "unknown subscription or stale event")
		return
	}

	h.audit(event, model.EventProcessed, "")
	h.hub.Broadcast(websocket.NewMessage("subscription", "updated", stripeSub.ID, map[string]any{
		"status": status,
	}))
	h.logger.Info("webhook: subscription updated", "stripe_subscription_id", stripeSub.ID, "status", status)
}

func (h *WebhookHandler) audit(event stripe.Event, status, detail string) {
	if err := h.eventStore.Record(event.ID, string(event.Type), status, detail); err != nil {
		h.logger.Error("webhook: record audit event", "event_id", event.ID, "error", err)
	}
}
