// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/direct/router"
)

const (
	outcomeOK = "ok"
	unrouted  = "unrouted"
)

// Metrics counts and times dispatched calls.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the call metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "direct_calls_total",
			Help: "Dispatched calls by action, method and outcome.",
		}, []string{"action", "method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "direct_call_duration_seconds",
			Help:    "Time spent dispatching a call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action", "method"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.calls, m.duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observe(req *router.Request, duration time.Duration, err error) {
	var action, method string
	if req != nil {
		action, method = req.Action, req.Method
	}
	outcome := outcomeOK
	if err != nil {
		code := ToError(err).Code
		outcome = string(code)
		// Unrouted names come from callers; keep them out of the label set.
		if code == CodeActionNotFound || code == CodeMethodNotFound {
			action, method = unrouted, unrouted
		}
	}
	m.calls.WithLabelValues(action, method, outcome).Inc()
	m.duration.WithLabelValues(action, method).Observe(duration.Seconds())
}
