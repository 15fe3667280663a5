// Package metrics exports head driver counters to Prometheus.
package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/arloliu/go-pnp/head"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "pnp"
	subsystem = "head"
)

type counterDef struct {
	name string
	help string
	v    *atomic.Uint64
}

// Collectors returns the collectors reading d's counters. labels are attached
// to every series, e.g. to tell several heads apart.
func Collectors(d *head.Driver, labels prometheus.Labels) []prometheus.Collector {
	m := d.Metrics()

	counters := []counterDef{
		{"exchanges_total", "Completed exchanges.", &m.ExchangeCount},
		{"exchange_errors_total", "Aborted exchanges.", &m.ExchangeErrCount},
		{"protocol_errors_total", "Handshake bytes that did not match the expected ack.", &m.ProtocolErrCount},
		{"checksum_errors_total", "Status payloads rejected for a checksum mismatch.", &m.ChecksumErrCount},
		{"bytes_written_total", "Bytes written to the controller.", &m.BytesWritten},
		{"bytes_read_total", "Bytes read from the controller.", &m.BytesRead},
		{"read_retries_total", "Transport reads that returned no byte.", &m.ReadRetryCount},
		{"polls_total", "Poll opcodes written.", &m.PollCount},
		{"suppressed_moves_total", "Axis moves skipped because the target equals the cached position.", &m.SuppressedMoveCount},
		{"connects_total", "Successful connects.", &m.ConnectCount},
	}

	cs := make([]prometheus.Collector, 0, len(counters)+3)
	for _, c := range counters {
		v := c.v
		cs = append(cs, prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        c.name,
			Help:        c.help,
			ConstLabels: labels,
		}, func() float64 { return float64(v.Load()) }))
	}

	cs = append(cs,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "connected",
			Help:        "1 while the driver is connected.",
			ConstLabels: labels,
		}, func() float64 { return float64(m.ConnectedGauge.Load()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "pump_on",
			Help:        "1 while the vacuum pump interlock is on.",
			ConstLabels: labels,
		}, func() float64 {
			if d.PumpState() == head.PumpOn {
				return 1
			}
			return 0
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "held_parts",
			Help:        "Number of nozzles holding a part.",
			ConstLabels: labels,
		}, func() float64 { return float64(len(d.HeldParts())) }),
	)

	return cs
}

// Register registers d's collectors with reg.
func Register(reg prometheus.Registerer, d *head.Driver, labels prometheus.Labels) error {
	for _, c := range Collectors(d, labels) {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("metrics: register: %w", err)
		}
	}

	return nil
}

// Handler returns an HTTP handler serving the metrics gathered from g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
