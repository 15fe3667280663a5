package head

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/arloliu/go-pnp/logger"
	"github.com/arloliu/go-pnp/wire"
	"github.com/puzpuzpuz/xsync/v3"
)

// ActuatorKind is the hardware function behind an actuator name.
type ActuatorKind int

const (
	ActuatorAir ActuatorKind = iota
	ActuatorLightsDown
	ActuatorLightsUp
)

func (k ActuatorKind) String() string {
	switch k {
	case ActuatorAir:
		return "air"
	case ActuatorLightsDown:
		return "lights-down"
	case ActuatorLightsUp:
		return "lights-up"
	default:
		return "unknown"
	}
}

// Actuator names of the lights.
const (
	LightsDownName = "Lights-Down"
	LightsUpName   = "Lights-Up"
)

// Actuator is a named output of the head.
type Actuator struct {
	Name string
	Kind ActuatorKind
	// Nozzle is set for ActuatorAir only.
	Nozzle NozzleID
}

// Readable reports whether the actuator's value can be read back.
func (a Actuator) Readable() bool {
	return a.Kind == ActuatorAir
}

// AirActuatorName returns the actuator name of nozzle n's air valve, e.g. "N1-Air".
func AirActuatorName(n NozzleID) string {
	return n.String() + "-Air"
}

// ByteValue rounds v half up and clamps it to [0, 255]. NaN becomes 0.
func ByteValue(v float64) byte {
	if math.IsNaN(v) {
		return 0
	}

	return byte(math.Max(0, math.Min(255, math.Floor(v+0.5))))
}

// actuatorBridge maps actuator names to exchanges.
type actuatorBridge struct {
	registry *xsync.MapOf[string, Actuator]
	seq      *sequencer
	logger   logger.Logger
}

func newActuatorBridge(seq *sequencer, l logger.Logger) *actuatorBridge {
	b := &actuatorBridge{
		registry: xsync.NewMapOf[string, Actuator](),
		seq:      seq,
		logger:   l,
	}

	for _, n := range Nozzles() {
		name := AirActuatorName(n)
		b.registry.Store(name, Actuator{Name: name, Kind: ActuatorAir, Nozzle: n})
	}
	b.registry.Store(LightsDownName, Actuator{Name: LightsDownName, Kind: ActuatorLightsDown})
	b.registry.Store(LightsUpName, Actuator{Name: LightsUpName, Kind: ActuatorLightsUp})

	return b
}

func (b *actuatorBridge) lookup(name string) (Actuator, bool) {
	return b.registry.Load(name)
}

func (b *actuatorBridge) names() []string {
	names := make([]string, 0, b.registry.Size())
	b.registry.Range(func(name string, _ Actuator) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)

	return names
}

// actuate drives the named actuator to value. Unknown names are ignored.
func (b *actuatorBridge) actuate(ctx context.Context, name string, value byte) error {
	a, ok := b.lookup(name)
	if !ok {
		b.logger.Debug("head: ignoring unknown actuator", "name", name)
		return nil
	}

	switch a.Kind {
	case ActuatorAir:
		return b.seq.execute(ctx, wire.ActuateAir, wire.AirPayload(value, a.Nozzle.Wire()))
	case ActuatorLightsDown:
		return b.seq.execute(ctx, wire.LightsDown, wire.LightsDownPayload(value))
	case ActuatorLightsUp:
		return b.seq.execute(ctx, wire.LightsUp, wire.LightsUpPayload(value))
	default:
		return fmt.Errorf("head: actuator %q has unsupported kind %s", name, a.Kind)
	}
}

// read returns the decimal value of a readable actuator. ok is false, without
// any I/O, when the name is unknown or not readable.
func (b *actuatorBridge) read(ctx context.Context, name string) (value string, ok bool, err error) {
	a, found := b.lookup(name)
	if !found || !a.Readable() {
		b.logger.Debug("head: actuator has no readable value", "name", name)
		return "", false, nil
	}

	p, err := b.seq.readStatus(ctx)
	if err != nil {
		return "", false, err
	}

	return strconv.Itoa(int(p[a.Nozzle.Index()])), true, nil
}
