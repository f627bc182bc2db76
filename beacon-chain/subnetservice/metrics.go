package subnetservice

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the handles the service reports to. They are injected at
// construction (see NewService's Config) rather than read from a
// package-global registry, so the service never depends on the process-wide
// metrics registry directly (spec §9, "Global state").
type Metrics struct {
	SubscribeTotal     prometheus.Counter
	UnsubscribeTotal   prometheus.Counter
	DiscoveryBatchSize prometheus.Histogram
}

// NewMetrics builds a Metrics bundle registered against reg. Passing a nil
// reg is valid and yields metrics that are simply never scraped -- useful
// for tests that don't care about observability.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SubscribeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subnetservice_subscribe_total",
			Help: "Number of Subscribe messages emitted.",
		}),
		UnsubscribeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subnetservice_unsubscribe_total",
			Help: "Number of Unsubscribe messages emitted.",
		}),
		DiscoveryBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "subnetservice_discovery_batch_size",
			Help:    "Number of subnets included in each DiscoverPeers message.",
			Buckets: prometheus.LinearBuckets(1, 4, 16),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.SubscribeTotal, m.UnsubscribeTotal, m.DiscoveryBatchSize)
	}
	return m
}
