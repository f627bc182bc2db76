package cache

import (
	"sync"

	"github.com/prysmaticlabs/subnet-relay/consensus-types/primitives"
)

// syncCommitteeEntry is one validator's committed sync subnets and the
// sync-committee period they were computed for.
type syncCommitteeEntry struct {
	subnets []uint64
	period  primitives.Epoch
}

// syncSubnetIDs caches, per validator public key, the sync-committee
// subnets a validator last reported and the sync-committee period that
// assignment is valid for. It is a bookkeeping cache for the RPC-facing layer, distinct from the
// subnet service's own until_epoch expiry map.
type syncSubnetIDs struct {
	mu      sync.RWMutex
	entries map[[48]byte]syncCommitteeEntry
}

func newSyncSubnetIDs() *syncSubnetIDs {
	return &syncSubnetIDs{entries: make(map[[48]byte]syncCommitteeEntry)}
}

// SyncSubnetIDs is the process-wide instance.
var SyncSubnetIDs = newSyncSubnetIDs()

// AddSyncCommitteeSubnets records the subnets a validator's pubkey belongs
// to, valid as of the given period (epoch // EpochsPerSyncCommitteePeriod).
func (s *syncSubnetIDs) AddSyncCommitteeSubnets(pubkey []byte, period primitives.Epoch, subnets []uint64) {
	var key [48]byte
	copy(key[:], pubkey)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = syncCommitteeEntry{subnets: subnets, period: period}
}

// GetSyncCommitteeSubnets returns the recorded subnets for a pubkey,
// provided the recorded period is not older than currentPeriod.
func (s *syncSubnetIDs) GetSyncCommitteeSubnets(pubkey []byte, currentPeriod primitives.Epoch) ([]uint64, primitives.Epoch, bool) {
	var key [48]byte
	copy(key[:], pubkey)

	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok || entry.period < currentPeriod {
		return nil, 0, false
	}
	return entry.subnets, entry.period, true
}

// GetAllSubnets returns the union of subnets committed to as of
// currentPeriod, across every validator.
func (s *syncSubnetIDs) GetAllSubnets(currentPeriod primitives.Epoch) []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[uint64]struct{})
	for _, entry := range s.entries {
		if entry.period < currentPeriod {
			continue
		}
		for _, sub := range entry.subnets {
			seen[sub] = struct{}{}
		}
	}
	out := make([]uint64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}

// EmptyAllCaches clears all entries. Exposed for tests.
func (s *syncSubnetIDs) EmptyAllCaches() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[[48]byte]syncCommitteeEntry)
}
