package head

import (
	"sync/atomic"
)

// DriverMetrics contains atomic metrics for a head driver.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc;
// see package metrics.
type DriverMetrics struct {
	// ExchangeCount indicates the number of completed exchanges.
	ExchangeCount atomic.Uint64
	// ExchangeErrCount indicates the number of aborted exchanges.
	ExchangeErrCount atomic.Uint64
	// ProtocolErrCount indicates the number of ack mismatches.
	ProtocolErrCount atomic.Uint64
	// ChecksumErrCount indicates the number of status payloads with a bad checksum.
	ChecksumErrCount atomic.Uint64

	// BytesWritten indicates the number of bytes written to the controller.
	BytesWritten atomic.Uint64
	// BytesRead indicates the number of bytes read from the controller.
	BytesRead atomic.Uint64
	// ReadRetryCount indicates the number of transport reads that returned no byte.
	ReadRetryCount atomic.Uint64
	// PollCount indicates the number of poll opcodes written.
	PollCount atomic.Uint64

	// SuppressedMoveCount indicates the number of axis moves skipped because
	// the target equals the cached position.
	SuppressedMoveCount atomic.Uint64

	// ConnectCount indicates the number of successful connects.
	ConnectCount atomic.Uint64
	// ConnectedGauge is 1 while the driver is connected.
	ConnectedGauge atomic.Uint32
}

func (m *DriverMetrics) incExchangeCount() {
	m.ExchangeCount.Add(1)
}

func (m *DriverMetrics) incExchangeErrCount() {
	m.ExchangeErrCount.Add(1)
}

func (m *DriverMetrics) incProtocolErrCount() {
	m.ProtocolErrCount.Add(1)
}

func (m *DriverMetrics) incChecksumErrCount() {
	m.ChecksumErrCount.Add(1)
}

func (m *DriverMetrics) addBytesWritten(n int) {
	m.BytesWritten.Add(uint64(n)) //nolint:gosec
}

func (m *DriverMetrics) incBytesRead() {
	m.BytesRead.Add(1)
}

func (m *DriverMetrics) incReadRetryCount() {
	m.ReadRetryCount.Add(1)
}

func (m *DriverMetrics) incPollCount() {
	m.PollCount.Add(1)
}

func (m *DriverMetrics) incSuppressedMoveCount() {
	m.SuppressedMoveCount.Add(1)
}

func (m *DriverMetrics) setConnected(v bool) {
	if v {
		m.ConnectCount.Add(1)
		m.ConnectedGauge.Store(1)

		return
	}
	m.ConnectedGauge.Store(0)
}
