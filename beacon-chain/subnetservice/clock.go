package subnetservice

import (
	"time"

	"github.com/prysmaticlabs/subnet-relay/config/params"
	"github.com/prysmaticlabs/subnet-relay/consensus-types/primitives"
	"github.com/prysmaticlabs/subnet-relay/time/slots"
)

// ChainInfoFetcher is the narrow slot-clock capability interface (spec §9):
// slot-clock access and nothing else. It deliberately does not expose block
// processing, storage, or networking. clockAdapter implements it; Service
// does not accept a ChainInfoFetcher from outside, it builds its own
// clockAdapter from Config.GenesisTime and Config.ClockOpts.
type ChainInfoFetcher interface {
	// CurrentSlot returns the slot in progress, or (0, false) if the clock
	// has not started (pre-genesis).
	CurrentSlot() (primitives.Slot, bool)
	// DurationToNextSlot returns how long to sleep before the next slot
	// boundary.
	DurationToNextSlot() time.Duration
}

// clockAdapter wraps a *slots.Clock to satisfy ChainInfoFetcher, and adds
// the slot/epoch arithmetic the schedulers need. It is the Clock Adapter
// component of §4.1: the service never reads wall-clock time directly, only
// through this type, so tests can drive it with a fake "now."
type clockAdapter struct {
	clock *slots.Clock
}

// newClockAdapter builds a ChainInfoFetcher around a genesis-relative clock.
func newClockAdapter(clock *slots.Clock) *clockAdapter {
	return &clockAdapter{clock: clock}
}

func (c *clockAdapter) CurrentSlot() (primitives.Slot, bool) {
	return c.clock.CurrentSlot()
}

func (c *clockAdapter) DurationToNextSlot() time.Duration {
	return c.clock.DurationToNextSlot()
}

// epochOf returns the epoch containing a slot, using the process-wide
// chain-spec SlotsPerEpoch.
func epochOf(s primitives.Slot) primitives.Epoch {
	return slots.ToEpoch(s)
}

// slotsPerEpoch is a small convenience wrapper so scheduler code doesn't
// reach into config/params directly.
func slotsPerEpoch() uint64 {
	return params.BeaconConfig().SlotsPerEpoch
}
