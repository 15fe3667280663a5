package head

import (
	"context"
	"math"
	"sync"

	"github.com/arloliu/go-pnp/location"
	"github.com/arloliu/go-pnp/logger"
	"github.com/arloliu/go-pnp/wire"
)

// AxisState is the last commanded position of every axis, in millimeters and degrees.
// X and Y are shared by all nozzles; Z and C are indexed by NozzleID.Index().
type AxisState struct {
	X, Y float64
	Z    [NozzleCount]float64
	C    [NozzleCount]float64
}

// ClampZ limits z to [MinZ, MaxZ].
func ClampZ(z float64) float64 {
	return math.Max(MinZ, math.Min(MaxZ, z))
}

// ClampC limits c to [MinC, MaxC].
func ClampC(c float64) float64 {
	return math.Max(MinC, math.Min(MaxC, c))
}

// resolve substitutes the cached value for an unspecified (NaN) target.
func resolve(target, cached float64) float64 {
	if math.IsNaN(target) {
		return cached
	}

	return target
}

// motion translates move requests into exchanges and owns the axis cache.
//
// mu guards state only; exchanges are serialized by the driver.
type motion struct {
	mu    sync.RWMutex
	state AxisState

	seq     *sequencer
	cfg     *DriverConfig
	logger  logger.Logger
	metrics *DriverMetrics
}

func newMotion(seq *sequencer, cfg *DriverConfig, l logger.Logger, m *DriverMetrics) *motion {
	return &motion{seq: seq, cfg: cfg, logger: l, metrics: m}
}

func (m *motion) snapshot() AxisState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

// moveTo moves nozzle n to target, given in tool coordinates.
//
// The gantry move comes first, then Z, then rotation. Each axis is only
// commanded when its resolved value differs from the cache, and its cache
// entry is only updated after the exchange completed.
func (m *motion) moveTo(ctx context.Context, n NozzleID, target location.Location) error {
	target = target.In(location.Millimeters).Subtract(m.cfg.ToolOffset(n))
	cur := m.snapshot()
	i := n.Index()

	x := resolve(target.X, cur.X)
	y := resolve(target.Y, cur.Y)
	if x != cur.X || y != cur.Y {
		if err := m.seq.execute(ctx, wire.MoveXY, wire.MoveXYPayload(x, y)); err != nil {
			return err
		}
		m.mu.Lock()
		m.state.X, m.state.Y = x, y
		m.mu.Unlock()
	} else {
		m.suppressed(n, "xy")
	}

	z := ClampZ(resolve(target.Z, cur.Z[i]))
	if z != cur.Z[i] {
		if err := m.seq.execute(ctx, wire.MoveZ, wire.MoveZPayload(z, n.Wire())); err != nil {
			return err
		}
		m.mu.Lock()
		m.state.Z[i] = z
		m.mu.Unlock()
	} else {
		m.suppressed(n, "z")
	}

	c := ClampC(resolve(target.C, cur.C[i]))
	if c != cur.C[i] {
		if err := m.seq.execute(ctx, wire.MoveC, wire.MoveCPayload(c, n.Wire())); err != nil {
			return err
		}
		m.mu.Lock()
		m.state.C[i] = c
		m.mu.Unlock()
	} else {
		m.suppressed(n, "c")
	}

	return nil
}

func (m *motion) suppressed(n NozzleID, axis string) {
	m.metrics.incSuppressedMoveCount()
	m.logger.Debug("head: move suppressed, target equals cache", "nozzle", n.String(), "axis", axis)
}

// home runs the homing exchange and records the configured home position.
// The home position is trusted as is, without clamping.
func (m *motion) home(ctx context.Context) error {
	if err := m.seq.execute(ctx, wire.Home, wire.HomePayload()); err != nil {
		return err
	}

	x, y := m.cfg.HomePosition()

	m.mu.Lock()
	m.state.X, m.state.Y = x, y
	m.mu.Unlock()

	m.logger.Info("head: homed", "x", x, "y", y)

	return nil
}

// location reports the cached position of nozzle n in tool coordinates.
func (m *motion) location(n NozzleID) location.Location {
	st := m.snapshot()
	i := n.Index()

	return location.New(st.X, st.Y, st.Z[i], st.C[i]).Add(m.cfg.ToolOffset(n))
}
