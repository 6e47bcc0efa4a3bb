package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "appsistencia",
		Name:      "upstream_requests_total",
		Help:      "Requests sent to the Appsistencia API, by method and outcome kind.",
	}, []string{"method", "kind"})

	BatchItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "appsistencia",
		Name:      "batch_items_total",
		Help:      "Items dispatched by the sequential batch runner.",
	}, []string{"operation", "outcome"})
)

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
