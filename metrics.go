package pubsub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bus counters, registered on the default registerer so a host process
// that already serves /metrics picks them up without extra wiring.
var (
	metricPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pubsub",
		Name:      "messages_published_total",
		Help:      "Messages handed to Publish, whether or not anyone received them.",
	})

	metricDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pubsub",
		Name:      "messages_delivered_total",
		Help:      "Per-channel deliveries (one publish to N channels counts N).",
	})

	metricFanoutSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pubsub",
		Name:      "fanout_skips_total",
		Help:      "Matching channels skipped during fan-out, by reason.",
	}, []string{"reason"})

	metricFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pubsub",
		Name:      "fetches_total",
		Help:      "Fetch calls by result (hit or miss).",
	}, []string{"result"})

	metricCallbackFaults = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pubsub",
		Name:      "subscribe_callback_faults_total",
		Help:      "Subscriber callbacks that panicked; the loop recovers and continues.",
	})
)
