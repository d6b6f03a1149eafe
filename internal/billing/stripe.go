package billing

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/product"
	"github.com/stripe/stripe-go/v82/webhook"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
}

// Client wraps the Stripe API surface the platform consumes: product/price
// creation for plans, checkout sessions for subscribing, and webhook
// signature verification.
type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{cfg: cfg}
}

// CreateProductAndPrice registers a plan with Stripe and returns the price ID
// stored on the plan row.
func (c *Client) CreateProductAndPrice(name, description, cityID string, amount int64, interval string) (string, error) {
	productParams := &stripe.ProductParams{
		Name: stripe.String(name),
	}
	if description != "" {
		productParams.Description = stripe.String(description)
	}
	productParams.AddMetadata("city_id", cityID)

	prod, err := product.New(productParams)
	if err != nil {
		return "", fmt.Errorf("create stripe product: %w", err)
	}

	pr, err := price.New(&stripe.PriceParams{
		Product:    stripe.String(prod.ID),
		UnitAmount: stripe.Int64(amount),
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(interval),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create stripe price: %w", err)
	}
	return pr.ID, nil
}

// CheckoutParams carries everything a checkout session needs. UserID and
// PlanID travel as opaque session metadata and come back on the
// checkout.session.completed event; reconciliation depends on them.
type CheckoutParams struct {
	PriceID       string
	CustomerEmail string
	UserID        string
	PlanID        string
	CityID        string
	SuccessURL    string
	CancelURL     string
}

// CreateCheckoutSession creates a subscription-mode checkout session and
// returns the hosted payment page URL. No local state is written here; the
// subscription row is created by the webhook once payment completes.
func (c *Client) CreateCheckoutSession(p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(p.CustomerEmail),
		SuccessURL:    stripe.String(p.SuccessURL),
		CancelURL:     stripe.String(p.CancelURL),
	}
	params.AddMetadata("user_id", p.UserID)
	params.AddMetadata("plan_id", p.PlanID)
	params.AddMetadata("city_id", p.CityID)

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// ConstructWebhookEvent verifies the signature over the raw body and returns
// the parsed event. The SDK's API version check is disabled: an endpoint
// pinned to an older Stripe API version would otherwise have every event
// rejected after signature verification, silently stopping reconciliation.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, c.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
