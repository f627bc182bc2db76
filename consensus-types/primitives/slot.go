// Package primitives defines the small numeric types shared across the
// subnet service: Slot and Epoch. They are distinct types from plain
// uint64 so that a slot can never be silently passed where an epoch
// (or a raw index) was expected.
package primitives

import "fmt"

// Slot is a single unit of the beacon chain's time axis.
type Slot uint64

// Epoch is SlotsPerEpoch worth of Slots.
type Epoch uint64

// SubCap returns s - x, floored at 0 rather than wrapping.
func (s Slot) SubCap(x Slot) Slot {
	if x > s {
		return 0
	}
	return s - x
}

func (s Slot) String() string {
	return fmt.Sprintf("%d", uint64(s))
}

func (e Epoch) String() string {
	return fmt.Sprintf("%d", uint64(e))
}
