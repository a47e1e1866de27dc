package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		sweepsTotal,
		pollsTotal,
		priceChangesTotal,
		pollErrorsTotal,
		fetchLatency,
		productsTracked,
	)
}

var (
	sweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watch_sweeps_total",
			Help: "Total number of completed poll sweeps.",
		},
	)

	pollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watch_polls_total",
			Help: "Total product polls by outcome.",
		},
		[]string{"outcome"}, // 'ok', 'fetch_error', 'parse_error', 'store_error'
	)

	priceChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watch_price_changes_total",
			Help: "Total detected price changes by direction.",
		},
		[]string{"direction"}, // 'up', 'down'
	)

	pollErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watch_notify_errors_total",
			Help: "Total failures to deliver a price change message.",
		},
	)

	fetchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "watch_fetch_latency_ms",
			Help:    "Product page fetch latency distribution in milliseconds.",
			Buckets: []float64{25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"success"},
	)

	productsTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "watch_products_tracked",
			Help: "Current number of tracked products.",
		},
	)
)

func IncSweeps() { sweepsTotal.Inc() }

func IncPoll(outcome string) { pollsTotal.WithLabelValues(outcome).Inc() }

func IncPriceChange(dropped bool) {
	direction := "up"
	if dropped {
		direction = "down"
	}
	priceChangesTotal.WithLabelValues(direction).Inc()
}

func IncNotifyError() { pollErrorsTotal.Inc() }

func ObserveFetchLatency(d time.Duration, success bool) {
	fetchLatency.WithLabelValues(strconv.FormatBool(success)).Observe(float64(d.Milliseconds()))
}

func SetProductsTracked(n int) { productsTracked.Set(float64(n)) }
