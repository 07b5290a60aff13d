// Package metrics exports run and block events as Prometheus metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/blockpress/event"
)

const (
	namespace = "blockpress"

	resultSuccess = "success"
	resultWarning = "warning"
	resultError   = "error"
)

// Listener is an event.Listener that updates Prometheus collectors.
//
// Listeners for different operations may share a registry; they reuse the
// collectors registered by the first one.
type Listener struct {
	blocks       prometheus.Counter
	rawBytes     prometheus.Counter
	encodedBytes prometheus.Counter
	runs         *prometheus.CounterVec
	duration     prometheus.Observer
	op           string
}

var _ event.Listener = (*Listener)(nil)

// NewListener registers the blockpress collectors with reg and returns a listener
// that records events under the given op label, e.g. "compress".
func NewListener(reg prometheus.Registerer, op string) (*Listener, error) {
	blocks, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_total",
			Help:      "Total number of blocks processed",
		},
		[]string{"op"},
	))
	if err != nil {
		return nil, err
	}

	rawBytes, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "raw_bytes_total",
			Help:      "Total number of plaintext bytes processed",
		},
		[]string{"op"},
	))
	if err != nil {
		return nil, err
	}

	encodedBytes, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encoded_bytes_total",
			Help:      "Total number of encoded block bytes processed",
		},
		[]string{"op"},
	))
	if err != nil {
		return nil, err
	}

	runs, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of finished runs by result",
		},
		[]string{"op", "result"},
	))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of successful runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"op"},
	))
	if err != nil {
		return nil, err
	}

	return &Listener{
		op:           op,
		blocks:       blocks.WithLabelValues(op),
		rawBytes:     rawBytes.WithLabelValues(op),
		encodedBytes: encodedBytes.WithLabelValues(op),
		runs:         runs,
		duration:     duration.WithLabelValues(op),
	}, nil
}

// OnEvent records e.
func (l *Listener) OnEvent(e event.Event) {
	switch e.Kind {
	case event.KindBlockDone:
		l.blocks.Inc()
		l.rawBytes.Add(float64(e.RawBytes))
		l.encodedBytes.Add(float64(e.EncodedBytes))
	case event.KindCompleted:
		l.runs.WithLabelValues(l.op, resultSuccess).Inc()
		l.duration.Observe(e.Elapsed.Seconds())
	case event.KindError:
		l.runs.WithLabelValues(l.op, resultError).Inc()
	case event.KindWarning:
		l.runs.WithLabelValues(l.op, resultWarning).Inc()
	}
}

// register registers c, or returns the equal collector that is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}

	var zero T

	return zero, err
}
