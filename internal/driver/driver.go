package driver

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	DefaultTickLength = time.Second * 2
)

// Manager is any component that wants a slice of the tick loop.
type Manager interface {
	Tick(context.Context) error
}

// Driver runs the simulation tick. The cross-backend migrator pauses
// it while copying; a paused driver skips ticks but keeps its worker
// alive so the service can resume under the new backend.
type Driver struct {
	tickLength time.Duration
	managers   []Manager

	paused  atomic.Bool
	ticking atomic.Bool
}

func NewDriver(managers []Manager, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Driver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if d.paused.Load() {
				continue
			}
			if err := d.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (d *Driver) Tick(ctx context.Context) error {
	d.ticking.Store(true)
	defer d.ticking.Store(false)

	for _, m := range d.managers {
		if err := m.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Pause stops new ticks from starting. In-flight work completes
// naturally.
func (d *Driver) Pause() {
	d.paused.Store(true)
}

func (d *Driver) Resume() {
	d.paused.Store(false)
}

// Quiesced reports whether the driver is paused with no tick in
// flight.
func (d *Driver) Quiesced() bool {
	return d.paused.Load() && !d.ticking.Load()
}
