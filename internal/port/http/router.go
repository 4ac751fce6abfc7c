package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/metrics"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/service"
)

// NewRouter wires the public API surface. All routes live under /api/v1
// except the health check.
func NewRouter(h *Handler, tokens *service.TokenIssuer, m *metrics.Manager, log logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(Observe(m, log))

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/verify-otp", h.VerifyOTP)
			r.Post("/login", h.Login)
			r.Post("/refresh-token", h.Refresh)
			r.Post("/forgot-password", h.ForgotPassword)

			r.Group(func(r chi.Router) {
				r.Use(Authenticate(tokens))
				r.Post("/logout", h.Logout)
				r.Post("/change-password", h.ChangePassword)
				r.Get("/me", h.CurrentAccount)
				r.Get("/order-history", h.OrderHistory)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(Authenticate(tokens))
			r.Post("/place", h.PlaceOrder)
			r.Post("/payment-intent", h.CreatePaymentIntent)
			r.Get("/{orderID}", h.GetOrder)

			r.Group(func(r chi.Router) {
				r.Use(StaffOnly)
				r.Post("/{orderID}/deliver", h.DeliverOrder)
			})
		})
	})

	return r
}
