// Package slots provides slot/epoch arithmetic and a genesis-relative clock,
// the way Prysm's time/slots and blockchain.Clock packages do. The subnet
// service never reads the wall clock directly; it goes through the Clock
// type here so that tests can substitute a fake "now" function.
package slots

import (
	"time"

	"github.com/prysmaticlabs/subnet-relay/config/params"
	"github.com/prysmaticlabs/subnet-relay/consensus-types/primitives"
)

// ToEpoch converts a slot to the epoch that contains it.
func ToEpoch(s primitives.Slot) primitives.Epoch {
	spe := params.BeaconConfig().SlotsPerEpoch
	if spe == 0 {
		return 0
	}
	return primitives.Epoch(uint64(s) / spe)
}

// EpochStart returns the first slot of an epoch.
func EpochStart(e primitives.Epoch) primitives.Slot {
	return primitives.Slot(uint64(e) * params.BeaconConfig().SlotsPerEpoch)
}

// ClockOpt configures a Clock at construction time.
type ClockOpt func(*Clock)

// WithNow overrides the function used to read wall-clock time, for
// deterministic tests.
func WithNow(now func() time.Time) ClockOpt {
	return func(c *Clock) {
		c.now = now
	}
}

// Clock is a genesis-relative slot clock. It never sleeps on wall time
// directly; callers ask it for the duration until the next slot boundary
// and sleep on that.
type Clock struct {
	genesis time.Time
	now     func() time.Time
}

// NewClock builds a Clock anchored at the given genesis instant.
func NewClock(genesis time.Time, opts ...ClockOpt) *Clock {
	c := &Clock{genesis: genesis, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GenesisTime returns the clock's genesis instant.
func (c *Clock) GenesisTime() time.Time {
	return c.genesis
}

// started reports whether genesis has occurred yet.
func (c *Clock) started() bool {
	return !c.now().Before(c.genesis)
}

// CurrentSlot returns the slot in progress right now, or (0, false) if
// genesis has not yet occurred (ClockUnavailable, per spec §7).
func (c *Clock) CurrentSlot() (primitives.Slot, bool) {
	if !c.started() {
		return 0, false
	}
	secondsPerSlot := params.BeaconConfig().SecondsPerSlot
	if secondsPerSlot <= 0 {
		return 0, false
	}
	elapsed := c.now().Sub(c.genesis)
	return primitives.Slot(uint64(elapsed / secondsPerSlot)), true
}

// SlotStart returns the wall-clock instant a given slot begins.
func (c *Clock) SlotStart(s primitives.Slot) time.Time {
	return c.genesis.Add(time.Duration(uint64(s)) * params.BeaconConfig().SecondsPerSlot)
}

// DurationToSlot returns how long to wait until the start of the target
// slot. A target in the past returns 0.
func (c *Clock) DurationToSlot(target primitives.Slot) time.Duration {
	d := c.SlotStart(target).Sub(c.now())
	if d < 0 {
		return 0
	}
	return d
}

// DurationToNextSlot returns the duration until the next slot boundary
// after the current instant. If genesis has not occurred, it returns the
// duration until genesis itself (slot 0).
func (c *Clock) DurationToNextSlot() time.Duration {
	if !c.started() {
		return c.genesis.Sub(c.now())
	}
	cur, _ := c.CurrentSlot()
	return c.DurationToSlot(cur + 1)
}
