package ecc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Silent recovery still needs an observability signal, so repairs and
// exhausted decodes are counted rather than surfaced as errors or logs.
var (
	decodeRecoveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "norn_ecc_recoveries_total",
		Help: "Number of payloads silently repaired by Reed-Solomon reconstruction",
	})

	decodeUnrecoverable = promauto.NewCounter(prometheus.CounterOpts{
		Name: "norn_ecc_unrecoverable_total",
		Help: "Number of payloads that exceeded the parity budget and were lost",
	})
)
