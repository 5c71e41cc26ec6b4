package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kyefa", Name: "messages_total", Help: "Messages applied by the dispatch loop",
	}, []string{"module"})
	MessagesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kyefa", Name: "messages_dropped_total", Help: "Dashboard messages discarded after logout",
	})
	GatewayLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kyefa", Name: "gateway_request_seconds", Help: "Backend request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "code"})
)

func init() {
	prometheus.MustRegister(MessagesDispatched, MessagesDropped, GatewayLatency)
}

func Handler() http.Handler { return promhttp.Handler() }

// ObserveGateway: code=0 — транспортная ошибка.
func ObserveGateway(op string, code int, d time.Duration) {
	GatewayLatency.WithLabelValues(op, strconv.Itoa(code)).Observe(d.Seconds())
}
