package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/billing"
	"github.com/citypulse/citypulse/internal/handler"
	"github.com/citypulse/citypulse/internal/middleware"
	"github.com/citypulse/citypulse/internal/model"
	"github.com/citypulse/citypulse/internal/push"
	"github.com/citypulse/citypulse/internal/storage"
	"github.com/citypulse/citypulse/internal/store"
	ws "github.com/citypulse/citypulse/internal/websocket"
)

// Config collects everything the server needs beyond the database handle.
type Config struct {
	BaseURL     string
	JWTSecret   string
	JWTTTL      time.Duration
	DevHeaders  bool
	Billing     billing.Config
	Storage     storage.Config
	VAPIDPublic string
	VAPIDKey    string
	VAPIDEmail  string
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	tokens        *auth.TokenService
	resolverCfg   middleware.ResolverConfig
	rateLimiter   *middleware.RateLimiter
	authH         *handler.AuthHandler
	cityH         *handler.CityHandler
	publisherH    *handler.PublisherHandler
	planH         *handler.PlanHandler
	editionH      *handler.EditionHandler
	checkoutH     *handler.CheckoutHandler
	subscriptionH *handler.SubscriptionHandler
	webhookH      *handler.WebhookHandler
	pushH         *handler.PushHandler
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	cityStore := store.NewCityStore(db)
	publisherStore := store.NewPublisherStore(db)
	planStore := store.NewPlanStore(db)
	editionStore := store.NewEditionStore(db)
	subscriptionStore := store.NewSubscriptionStore(db)
	pushStore := store.NewPushStore(db)
	webhookEventStore := store.NewWebhookEventStore(db)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	billingClient := billing.NewClient(cfg.Billing)
	uploader := storage.NewUploader(cfg.Storage)

	pushSvc := push.NewService(cfg.VAPIDPublic, cfg.VAPIDKey, cfg.VAPIDEmail)
	fanout := push.NewFanout(pushSvc, pushStore, logger.With("component", "push"))

	return &Server{
		db:          db,
		hub:         hub,
		tokens:      tokens,
		resolverCfg: middleware.ResolverConfig{DevHeaders: cfg.DevHeaders},
		rateLimiter: middleware.NewRateLimiter(),
		authH:       handler.NewAuthHandler(userStore, publisherStore, tokens, logger.With("component", "auth")),
		cityH:       handler.NewCityHandler(cityStore, logger.With("component", "city")),
		publisherH:  handler.NewPublisherHandler(publisherStore, cityStore, logger.With("component", "publisher")),
		planH:       handler.NewPlanHandler(planStore, billingClient, hub, logger.With("component", "plan")),
		editionH: handler.NewEditionHandler(
			editionStore, publisherStore, cityStore, uploader, fanout, hub,
			logger.With("component", "edition"),
		),
		checkoutH:     handler.NewCheckoutHandler(planStore, billingClient, cfg.BaseURL, logger.With("component", "checkout")),
		subscriptionH: handler.NewSubscriptionHandler(subscriptionStore, logger.With("component", "subscription")),
		webhookH: handler.NewWebhookHandler(
			billingClient, subscriptionStore, webhookEventStore, hub,
			logger.With("component", "webhook"),
		),
		pushH:  handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler")),
		logger: logger,
	}
}

// RateLimiter exposes the limiter for periodic cleanup.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public, outside the context resolver. The webhook authenticates with
	// its own signature; anything behind the resolver would 401 Stripe's
	// unauthenticated POSTs when dev headers are off.
	mux.HandleFunc("POST /webhooks/stripe", s.webhookH.HandleStripeWebhook)
	mux.HandleFunc("GET /health", s.healthHandler)

	resolved := http.NewServeMux()

	// Public reads and account endpoints.
	resolved.HandleFunc("POST /auth/signup", s.rateLimited(s.authH.Signup))
	resolved.HandleFunc("POST /auth/login", s.rateLimited(s.authH.Login))
	resolved.HandleFunc("GET /auth/me", s.authH.Me)
	resolved.HandleFunc("GET /cities", s.cityH.List)
	resolved.HandleFunc("GET /cities/{id}/plans", s.planH.ListPublic)
	resolved.HandleFunc("GET /editions/{id}", s.editionH.GetPublic)
	resolved.HandleFunc("GET /push/config", s.pushH.Config)

	// Reader endpoints.
	resolved.HandleFunc("POST /checkout", s.checkoutH.Create)
	resolved.HandleFunc("GET /subscriptions", s.subscriptionH.List)
	readerGate := middleware.RequireRole(model.RoleReader)
	resolved.Handle("POST /push/subscriptions", readerGate(http.HandlerFunc(s.pushH.Subscribe)))
	resolved.Handle("DELETE /push/subscriptions", readerGate(http.HandlerFunc(s.pushH.Unsubscribe)))

	// Super-admin endpoints.
	admin := http.NewServeMux()
	admin.HandleFunc("POST /admin/cities", s.cityH.Create)
	admin.HandleFunc("PATCH /admin/cities/{id}", s.cityH.Update)
	admin.HandleFunc("DELETE /admin/cities/{id}", s.cityH.Delete)
	admin.HandleFunc("POST /admin/publishers", s.publisherH.Create)
	admin.HandleFunc("GET /admin/publishers", s.publisherH.List)
	admin.HandleFunc("PATCH /admin/publishers/{id}", s.publisherH.Update)
	resolved.Handle("/admin/", middleware.RequireRole(model.RoleSuperAdmin)(admin))

	// Publisher endpoints, city-scoped.
	publisher := http.NewServeMux()
	publisher.HandleFunc("GET /plans", s.planH.List)
	publisher.HandleFunc("POST /plans", s.planH.Create)
	publisher.HandleFunc("DELETE /plans/{id}", s.planH.Deactivate)
	publisher.HandleFunc("GET /editions", s.editionH.List)
	publisher.HandleFunc("POST /editions", s.editionH.Create)
	publisher.HandleFunc("PATCH /editions/{id}", s.editionH.Update)
	publisher.HandleFunc("POST /editions/{id}/publish", s.editionH.Publish)
	publisher.HandleFunc("DELETE /editions/{id}", s.editionH.Delete)
	publisherChain := middleware.RequireRole(model.RolePublisher)(middleware.RequireCity(publisher))
	resolved.Handle("/plans", publisherChain)
	resolved.Handle("/plans/", publisherChain)
	resolved.Handle("/editions", publisherChain)
	resolved.Handle("POST /editions/{id}/publish", publisherChain)
	resolved.Handle("PATCH /editions/{id}", publisherChain)
	resolved.Handle("DELETE /editions/{id}", publisherChain)

	// Live dashboard events.
	resolved.Handle("GET /ws", ws.HandleWebSocket(s.hub))

	resolver := middleware.ResolveContext(s.tokens, s.resolverCfg, s.logger.With("component", "resolver"))
	mux.Handle("/", resolver(resolved))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
