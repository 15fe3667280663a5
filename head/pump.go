package head

import (
	"context"
	"fmt"
	"sync"

	"github.com/arloliu/go-pnp/logger"
)

// PumpState is the state of the vacuum pump interlock.
type PumpState int

const (
	PumpOff PumpState = iota
	PumpOn
)

func (s PumpState) String() string {
	if s == PumpOn {
		return "on"
	}

	return "off"
}

// HeldPartSet is the set of nozzles believed to be holding a part.
type HeldPartSet struct {
	held [NozzleCount]bool
}

// Add marks n as holding a part.
func (s *HeldPartSet) Add(n NozzleID) { s.held[n.Index()] = true }

// Remove marks n as empty.
func (s *HeldPartSet) Remove(n NozzleID) { s.held[n.Index()] = false }

// Contains reports whether n holds a part.
func (s *HeldPartSet) Contains(n NozzleID) bool { return s.held[n.Index()] }

// Len returns the number of nozzles holding a part.
func (s *HeldPartSet) Len() int {
	count := 0
	for _, h := range s.held {
		if h {
			count++
		}
	}

	return count
}

// Nozzles returns the nozzles holding a part, in order.
func (s *HeldPartSet) Nozzles() []NozzleID {
	var out []NozzleID
	for _, n := range Nozzles() {
		if s.held[n.Index()] {
			out = append(out, n)
		}
	}

	return out
}

// pumpInterlock runs the pump transitions driven by pick/place accounting:
// the first pick turns the pump on, the last place turns it off.
//
// Transitions are serialized by the driver; mu only guards parts and state
// against concurrent readers.
type pumpInterlock struct {
	mu    sync.Mutex
	parts HeldPartSet
	state PumpState

	fn     PumpFunc
	logger logger.Logger
}

func newPumpInterlock(fn PumpFunc, l logger.Logger) *pumpInterlock {
	return &pumpInterlock{fn: fn, logger: l}
}

func (p *pumpInterlock) snapshot() (HeldPartSet, PumpState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.parts, p.state
}

func (p *pumpInterlock) pick(ctx context.Context, n NozzleID) error {
	next, _ := p.snapshot()
	next.Add(n)

	return p.transition(ctx, next)
}

func (p *pumpInterlock) place(ctx context.Context, n NozzleID) error {
	next, _ := p.snapshot()
	next.Remove(n)

	return p.transition(ctx, next)
}

// transition commits next, running the pump action first when the set
// changes between empty and non-empty. A failed action commits nothing.
func (p *pumpInterlock) transition(ctx context.Context, next HeldPartSet) error {
	_, cur := p.snapshot()

	want := PumpOff
	if next.Len() > 0 {
		want = PumpOn
	}

	if want != cur && p.fn != nil {
		if err := p.fn(ctx, want == PumpOn); err != nil {
			return fmt.Errorf("head: pump %s: %w", want, err)
		}
	}

	p.mu.Lock()
	p.parts = next
	p.state = want
	p.mu.Unlock()

	if want != cur {
		p.logger.Debug("head: pump transition", "from", cur.String(), "to", want.String())
	}

	return nil
}
