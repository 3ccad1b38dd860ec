package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/auth"
	"fsanano/food-market/internal/gate"
	"fsanano/food-market/internal/metrics"
	"fsanano/food-market/internal/service"
)

// Subscriber streams the pushes addressed to one user.
type Subscriber interface {
	Subscribe(ctx context.Context, userID int64) (<-chan []byte, error)
}

type Deps struct {
	Auth          *service.AuthService
	Catalog       *service.CatalogService
	Orders        *service.OrderService
	Reviews       *service.ReviewService
	Chat          *service.ChatService
	Locations     *service.LocationService
	Notifications *service.NotificationService
	Admin         *service.AdminService
	Carts         *service.CartService

	Resolver *auth.Resolver
	Vendors  gate.VendorProfileFinder
	Stream   Subscriber
	Limiter  *RateLimiter
	Metrics  *metrics.Metrics

	Log   logrus.FieldLogger
	Debug bool
}

type Handler struct {
	router *chi.Mux
	errors *ErrorResponder
	gate   *gate.Gate
	deps   Deps
	log    logrus.FieldLogger
}

func NewHandler(deps Deps) *Handler {
	router := chi.NewRouter()
	responder := NewErrorResponder(deps.Debug, deps.Log)

	h := &Handler{
		router: router,
		errors: responder,
		gate:   gate.New(deps.Vendors, responder.Respond),
		deps:   deps,
		log:    deps.Log,
	}
	if deps.Limiter != nil {
		deps.Limiter.onLimit = responder.Respond
	}

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(deps.Log))
	router.Use(recoverer(responder.Respond))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
	}
	router.Use(deps.Resolver.Middleware)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.fail(w, r, apperr.ErrRouteNotFound)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.fail(w, r, apperr.WithStatus(http.StatusMethodNotAllowed, "Method not allowed."))
	})

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	r := h.router

	r.Get("/health", h.HealthCheck)
	if h.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.deps.Metrics.Handler())
	}

	// Public
	r.Group(func(r chi.Router) {
		if h.deps.Limiter != nil {
			r.Use(h.deps.Limiter.Handler)
		}
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
	r.Get("/categories", h.ListCategories)
	r.Get("/vendors", h.ListVendors)
	r.Get("/vendors/nearby", h.NearbyVendors)
	r.Get("/vendors/{id}", h.GetVendor)
	r.Get("/dishes", h.ListDishes)
	r.Get("/dishes/{id}", h.GetDish)
	r.Get("/reviews", h.ListReviews)

	// Authenticated
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(gate.AuthChain))

		r.Get("/user", h.CurrentUser)
		r.Get("/user/theme", h.GetTheme)
		r.Put("/user/theme", h.SetTheme)
		r.Get("/user/locations", h.ListLocations)
		r.Post("/user/locations", h.SaveLocation)

		r.Get("/orders", h.ListMyOrders)
		r.Post("/orders", h.PlaceOrder)
		r.Get("/orders/{id}", h.GetMyOrder)
		r.Post("/orders/{id}/cancel", h.CancelOrder)
		r.Get("/orders/{id}/route", h.OrderRoute)

		r.Post("/reviews", h.CreateReview)

		r.Get("/chat/conversations", h.ListConversations)
		r.Post("/chat/conversations", h.OpenConversation)
		r.Get("/chat/conversations/{id}/messages", h.ListMessages)
		r.Post("/chat/conversations/{id}/messages", h.PostMessage)

		r.Get("/notifications", h.ListNotifications)
		r.Put("/notifications/{id}/read", h.MarkNotificationRead)
		r.Put("/notifications/preferences", h.SetNotificationPreferences)
		r.Get("/notifications/stream", h.NotificationStream)

		r.Get("/cart", h.GetCart)
		r.Delete("/cart", h.ClearCart)
		r.Post("/cart/items", h.AddCartItem)
		r.Put("/cart/items/{id}", h.UpdateCartItem)
		r.Delete("/cart/items/{id}", h.RemoveCartItem)
	})

	// Vendor account, profile not required yet
	r.With(h.gate.Require(gate.VendorAccountChain)).Post("/vendors", h.CreateVendorProfile)

	r.Route("/vendor", func(r chi.Router) {
		r.Use(h.gate.Require(gate.VendorChain))

		r.Get("/profile", h.GetVendorProfile)
		r.Put("/profile", h.UpdateVendorProfile)

		r.Get("/dishes", h.ListVendorDishes)
		r.Post("/dishes", h.CreateDish)
		r.Get("/dishes/{id}", h.GetVendorDish)
		r.Put("/dishes/{id}", h.UpdateDish)
		r.Delete("/dishes/{id}", h.DeleteVendorDish)

		r.Get("/orders", h.ListVendorOrders)
		r.Get("/orders/{id}", h.GetVendorOrder)
		r.Put("/orders/{id}/status", h.UpdateVendorOrderStatus)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.gate.Require(gate.AdminChain))

		r.Get("/users", h.AdminListUsers)
		r.Put("/users/{id}/status", h.AdminSetUserStatus)

		r.Get("/vendors", h.AdminListVendors)
		r.Put("/vendors/{id}/verify", h.AdminVerifyVendor)

		r.Get("/dishes", h.AdminListDishes)
		r.Delete("/dishes/{id}", h.AdminDeleteDish)

		r.Get("/orders", h.AdminListOrders)
		r.Get("/orders/{id}", h.AdminGetOrder)
		r.Put("/orders/{id}/status", h.AdminUpdateOrderStatus)

		r.Get("/reviews", h.ListReviews)
		r.Delete("/reviews/{id}", h.AdminDeleteReview)

		r.Post("/categories", h.AdminCreateCategory)
		r.Put("/categories/{id}", h.AdminUpdateCategory)
		r.Delete("/categories/{id}", h.AdminDeleteCategory)

		r.Get("/chat/conversations", h.AdminListConversations)
		r.Get("/chat/conversations/{id}/messages", h.AdminListMessages)
		r.Post("/chat/conversations/{id}/messages", h.AdminPostMessage)
		r.Put("/chat/conversations/{id}/close", h.AdminCloseConversation)

		r.Post("/notifications", h.AdminBroadcast)
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]string{"status": "ok"})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.errors.Respond(w, r, err)
}
