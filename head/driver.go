package head

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/go-pnp/location"
	"github.com/arloliu/go-pnp/logger"
)

// Driver controls one four-nozzle head.
//
// All methods are safe for concurrent use. Exchanges are serialized: a call
// that needs the wire waits until the exchange in progress has completed or failed.
type Driver struct {
	cfg    *DriverConfig
	logger logger.Logger

	opState atomicOpState
	connMu  sync.Mutex // serializes Connect and Disconnect
	execMu  sync.Mutex // one exchange at a time

	ch        *commandChannel
	seq       *sequencer
	motion    *motion
	actuators *actuatorBridge
	pump      *pumpInterlock

	metrics DriverMetrics
}

// NewDriver creates a disconnected driver with every axis cached at zero.
func NewDriver(cfg *DriverConfig) (*Driver, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	d := &Driver{
		cfg:    cfg,
		logger: cfg.logger.With("component", "head"),
	}
	d.ch = newCommandChannel(cfg, d.logger, &d.metrics)
	d.seq = newSequencer(d.ch, cfg, d.logger, &d.metrics)
	d.motion = newMotion(d.seq, cfg, d.logger, &d.metrics)
	d.actuators = newActuatorBridge(d.seq, d.logger)
	d.pump = newPumpInterlock(cfg.pumpFunc, d.logger)
	d.opState.Set(ClosedState)

	return d, nil
}

// Config returns the driver configuration.
func (d *Driver) Config() *DriverConfig { return d.cfg }

// Metrics returns the driver's counters.
func (d *Driver) Metrics() *DriverMetrics { return &d.metrics }

// State returns the lifecycle state.
func (d *Driver) State() OpState { return d.opState.Get() }

// IsConnected reports whether the driver is connected.
func (d *Driver) IsConnected() bool { return d.opState.IsOpened() }

// Connect opens the byte stream to the controller. Connecting a connected
// driver does nothing.
func (d *Driver) Connect(ctx context.Context) error {
	d.connMu.Lock()
	defer d.connMu.Unlock()

	if d.opState.IsOpened() {
		return nil
	}
	if !d.opState.ToOpening() {
		return fmt.Errorf("head: cannot connect in state %s", d.opState.String())
	}

	if err := d.ch.open(ctx); err != nil {
		d.opState.ToClosing()
		d.opState.ToClosed()
		d.logger.Error("head: connect failed", "error", err)

		return err
	}

	d.opState.ToOpened()
	d.metrics.setConnected(true)
	d.logger.Info("head: connected", "address", d.cfg.port.Address, "backend", string(d.cfg.port.Backend))

	return nil
}

// Disconnect closes the byte stream. An exchange in progress fails with
// ErrNotConnected. Disconnecting a disconnected driver does nothing.
func (d *Driver) Disconnect() error {
	d.connMu.Lock()
	defer d.connMu.Unlock()

	if d.opState.IsClosed() {
		return nil
	}
	d.opState.ToClosing()

	err := d.ch.close()
	d.opState.ToClosed()
	d.metrics.setConnected(false)

	if err != nil {
		d.logger.Error("head: disconnect failed", "error", err)
		return err
	}
	d.logger.Info("head: disconnected")

	return nil
}

// withExchange runs fn holding the exchange lock on a connected driver.
func (d *Driver) withExchange(fn func() error) error {
	d.execMu.Lock()
	defer d.execMu.Unlock()

	if !d.opState.IsOpened() {
		return ErrNotConnected
	}

	return fn()
}

// Home runs the homing cycle and resets the cached gantry position to the
// configured home position.
func (d *Driver) Home(ctx context.Context) error {
	return d.withExchange(func() error {
		return d.motion.home(ctx)
	})
}

// MoveTo moves nozzle n so that its tool point reaches loc. NaN axes keep
// their current value. Z and rotation are clamped to the head's limits.
// Axes already at their target are not commanded.
func (d *Driver) MoveTo(ctx context.Context, n NozzleID, loc location.Location) error {
	if !n.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidNozzle, uint8(n))
	}
	if !loc.Units.Valid() {
		return errors.New("head: move target has invalid units")
	}

	return d.withExchange(func() error {
		return d.motion.moveTo(ctx, n, loc)
	})
}

// Location returns the cached tool position of nozzle n in millimeters.
// It never performs I/O.
func (d *Driver) Location(n NozzleID) (location.Location, error) {
	if !n.Valid() {
		return location.Location{}, fmt.Errorf("%w: %d", ErrInvalidNozzle, uint8(n))
	}

	return d.motion.location(n), nil
}

// LocationIn returns the cached tool position of nozzle n converted to units.
func (d *Driver) LocationIn(n NozzleID, units location.LengthUnit) (location.Location, error) {
	loc, err := d.Location(n)
	if err != nil {
		return loc, err
	}

	return loc.In(units), nil
}

// Snapshot returns a copy of the axis cache, without tool offsets.
func (d *Driver) Snapshot() AxisState {
	return d.motion.snapshot()
}

// Actuate switches the named actuator on (1) or off (0).
// Unknown names are ignored.
func (d *Driver) Actuate(ctx context.Context, name string, on bool) error {
	var v byte
	if on {
		v = 1
	}

	return d.actuate(ctx, name, v)
}

// ActuateValue drives the named actuator to value, rounded and clamped to a byte.
// Unknown names are ignored.
func (d *Driver) ActuateValue(ctx context.Context, name string, value float64) error {
	return d.actuate(ctx, name, ByteValue(value))
}

func (d *Driver) actuate(ctx context.Context, name string, v byte) error {
	if _, ok := d.actuators.lookup(name); !ok {
		d.logger.Debug("head: ignoring unknown actuator", "name", name)
		return nil
	}

	return d.withExchange(func() error {
		return d.actuators.actuate(ctx, name, v)
	})
}

// ReadActuator reads the named actuator's value as a decimal string.
// ok is false, and no I/O happens, for unknown or write-only actuators.
func (d *Driver) ReadActuator(ctx context.Context, name string) (value string, ok bool, err error) {
	a, found := d.actuators.lookup(name)
	if !found || !a.Readable() {
		return "", false, nil
	}

	err = d.withExchange(func() error {
		value, ok, err = d.actuators.read(ctx, name)
		return err
	})

	return value, ok, err
}

// Actuators returns the names of all actuators, sorted.
func (d *Driver) Actuators() []string {
	return d.actuators.names()
}

// Actuator returns the actuator registered under name.
func (d *Driver) Actuator(name string) (Actuator, bool) {
	return d.actuators.lookup(name)
}

// Pick records that nozzle n picked a part. The first pick turns the pump on.
func (d *Driver) Pick(ctx context.Context, n NozzleID) error {
	if !n.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidNozzle, uint8(n))
	}

	return d.withExchange(func() error {
		return d.pump.pick(ctx, n)
	})
}

// Place records that nozzle n placed its part. The last place turns the pump off.
func (d *Driver) Place(ctx context.Context, n NozzleID) error {
	if !n.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidNozzle, uint8(n))
	}

	return d.withExchange(func() error {
		return d.pump.place(ctx, n)
	})
}

// HeldParts returns the nozzles currently believed to hold a part.
func (d *Driver) HeldParts() []NozzleID {
	parts, _ := d.pump.snapshot()

	return parts.Nozzles()
}

// PumpState returns the pump interlock state.
func (d *Driver) PumpState() PumpState {
	_, state := d.pump.snapshot()

	return state
}
