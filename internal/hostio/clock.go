package hostio

import (
	"sync/atomic"
	"time"

	"mcubasic/basic"
)

// Clock runs a background ticker and exposes the elapsed tick count as
// a register, the same goroutine-plus-time.Timer shape a hardware
// timer peripheral driver would use to post periodic interrupts -
// simplified here to a plain atomic counter since BASIC has no
// interrupt vector to post into and instead polls.
type Clock struct {
	ticks atomic.Int64
	stop  chan struct{}
}

// NewClock starts a ticker that increments once per period and
// returns a Clock exposing the running total via TICKSRegister.
func NewClock(period time.Duration) *Clock {
	c := &Clock{stop: make(chan struct{})}
	go c.run(period)
	return c
}

func (c *Clock) run(period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.ticks.Add(1)
		case <-c.stop:
			return
		}
	}
}

// Close stops the ticker goroutine.
func (c *Clock) Close() { close(c.stop) }

// TICKSRegister returns a read-only Register named TICKS whose getter
// returns the number of periods elapsed since the Clock started.
func (c *Clock) TICKSRegister() *basic.Register {
	return &basic.Register{
		Name: "TICKS",
		Getter: func(any) (basic.Instr, error) {
			return basic.NewIntCell(int32(c.ticks.Load())), nil
		},
	}
}
