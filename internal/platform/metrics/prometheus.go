package metrics

import (
	"net/http"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds the service's custom Prometheus metrics on its own registry.
type Manager struct {
	Registry            *prometheus.Registry
	RegistrationsTotal  prometheus.Counter
	LoginsTotal         prometheus.Counter
	OrdersPlacedTotal   prometheus.Counter
	PaymentIntentsTotal prometheus.Counter
	APIErrorsTotal      *prometheus.CounterVec
	APILatency          *prometheus.HistogramVec
}

func NewManager(serviceName string) *Manager {
	registry := prometheus.NewRegistry()

	registrationsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts that dispatched an OTP.",
	})
	loginsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "logins_total",
		Help:      "Total number of successful password logins.",
	})
	ordersPlacedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "orders_placed_total",
		Help:      "Total number of cash-on-delivery orders placed.",
	})
	paymentIntentsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "payment_intents_total",
		Help:      "Total number of payment intents created at the gateway.",
	})
	apiErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "api_errors_total",
		Help:      "Total number of API errors by route and kind.",
	}, []string{"route", "kind"})
	apiLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "api_request_latency_seconds",
		Help:      "Latency of API requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	registry.MustRegister(
		registrationsTotal,
		loginsTotal,
		ordersPlacedTotal,
		paymentIntentsTotal,
		apiErrorsTotal,
		apiLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &Manager{
		Registry:            registry,
		RegistrationsTotal:  registrationsTotal,
		LoginsTotal:         loginsTotal,
		OrdersPlacedTotal:   ordersPlacedTotal,
		PaymentIntentsTotal: paymentIntentsTotal,
		APIErrorsTotal:      apiErrorsTotal,
		APILatency:          apiLatency,
	}
}

// StartServer exposes /metrics on its own port. An empty port disables it.
func StartServer(port string, log logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		log.Info("metrics server port not configured, server will not start")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	log.Infof("metrics server starting on :%s", port)
	server := &http.Server{Addr: ":" + port, Handler: mux}
	return server.ListenAndServe()
}
