package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	encodes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "norn_pipeline_encodes_total",
		Help: "Number of values successfully framed by the pipeline",
	})

	encodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "norn_pipeline_encode_failures_total",
		Help: "Number of pipeline encode operations that returned an error",
	})

	decodes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "norn_pipeline_decodes_total",
		Help: "Number of frames successfully decoded by the pipeline",
	})

	decodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "norn_pipeline_decode_failures_total",
		Help: "Number of pipeline decode operations that returned an error",
	})
)
