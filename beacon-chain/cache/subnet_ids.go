// Package cache holds small in-memory caches the subnet service and its
// callers share: per-slot aggregator/attester subnet assignments, and the
// process's own persistent-subnet commitment. These are bookkeeping caches
// for the validator-facing API layer that feeds the subnet service, not the
// subnet service's own expiry maps (those live in beacon-chain/subnetservice).
package cache

import (
	"sync"
	"time"

	"github.com/prysmaticlabs/subnet-relay/consensus-types/primitives"
)

// subnetIDs stores the attester/aggregator subnet ids requested for each
// slot, plus this node's own persistent-committee commitment.
type subnetIDs struct {
	aggregatorLock sync.RWMutex
	aggregator     map[primitives.Slot][]uint64
	attesterLock   sync.RWMutex
	attester       map[primitives.Slot][]uint64

	persistentLock    sync.RWMutex
	persistentSubnets []uint64
	persistentExpiry  time.Time
	persistentSet     bool
}

func newSubnetIDs() *subnetIDs {
	return &subnetIDs{
		aggregator: make(map[primitives.Slot][]uint64),
		attester:   make(map[primitives.Slot][]uint64),
	}
}

// SubnetIDs is the process-wide instance other packages reach through.
var SubnetIDs = newSubnetIDs()

// AddAggregatorSubnetID adds the subnet id to the list of subnets for the
// given slot, for the aggregator role.
func (s *subnetIDs) AddAggregatorSubnetID(slot primitives.Slot, subnetID uint64) {
	s.aggregatorLock.Lock()
	defer s.aggregatorLock.Unlock()
	s.aggregator[slot] = append(s.aggregator[slot], subnetID)
}

// GetAggregatorSubnetIDs returns the subnet ids for the aggregator role at
// the given slot.
func (s *subnetIDs) GetAggregatorSubnetIDs(slot primitives.Slot) []uint64 {
	s.aggregatorLock.RLock()
	defer s.aggregatorLock.RUnlock()
	return s.aggregator[slot]
}

// AddAttesterSubnetID adds the subnet id to the list of subnets for the
// given slot, for the attester role.
func (s *subnetIDs) AddAttesterSubnetID(slot primitives.Slot, subnetID uint64) {
	s.attesterLock.Lock()
	defer s.attesterLock.Unlock()
	s.attester[slot] = append(s.attester[slot], subnetID)
}

// GetAttesterSubnetIDs returns the subnet ids for the attester role at the
// given slot.
func (s *subnetIDs) GetAttesterSubnetIDs(slot primitives.Slot) []uint64 {
	s.attesterLock.RLock()
	defer s.attesterLock.RUnlock()
	return s.attester[slot]
}

// SetPersistentSubnets records this node's own permanent subnet commitment,
// along with when it should be recomputed.
func (s *subnetIDs) SetPersistentSubnets(subnets []uint64, expiry time.Time) {
	s.persistentLock.Lock()
	defer s.persistentLock.Unlock()
	s.persistentSubnets = subnets
	s.persistentExpiry = expiry
	s.persistentSet = true
}

// GetPersistentSubnets returns the recorded permanent subnet commitment, if
// one has been set.
func (s *subnetIDs) GetPersistentSubnets() ([]uint64, bool, time.Time) {
	s.persistentLock.RLock()
	defer s.persistentLock.RUnlock()
	return s.persistentSubnets, s.persistentSet, s.persistentExpiry
}

// GetAllSubnets returns the union of every subnet ever recorded via
// AddAttesterSubnetID, across all slots -- used by tests and diagnostics.
func (s *subnetIDs) GetAllSubnets() []uint64 {
	s.attesterLock.RLock()
	defer s.attesterLock.RUnlock()
	seen := make(map[uint64]struct{})
	for _, subs := range s.attester {
		for _, id := range subs {
			seen[id] = struct{}{}
		}
	}
	out := make([]uint64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}

// EmptyAllCaches clears every map. Exposed for tests.
func (s *subnetIDs) EmptyAllCaches() {
	s.aggregatorLock.Lock()
	s.aggregator = make(map[primitives.Slot][]uint64)
	s.aggregatorLock.Unlock()

	s.attesterLock.Lock()
	s.attester = make(map[primitives.Slot][]uint64)
	s.attesterLock.Unlock()

	s.persistentLock.Lock()
	s.persistentSubnets = nil
	s.persistentSet = false
	s.persistentExpiry = time.Time{}
	s.persistentLock.Unlock()
}
