package subnetservice

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/subnet-relay/beacon-chain/cache"
	"github.com/prysmaticlabs/subnet-relay/config/params"
	"github.com/prysmaticlabs/subnet-relay/consensus-types/primitives"
	subnetmath "github.com/prysmaticlabs/subnet-relay/network/subnets"
	"github.com/prysmaticlabs/subnet-relay/time/slots"
)

// syncUnsubscribeBuffer is the fixed number of epochs a sync-committee
// subnet stays subscribed past its until_epoch, to cover late attestations
// (spec §4.4 "Per-slot tick").
const syncUnsubscribeBuffer = 2

// syncScheduler implements §4.4: per-subnet expiry timers driven by
// sync-committee subscriptions, merged by keeping the maximum until_epoch.
type syncScheduler struct {
	discovery *discoveryCoordinator

	// untilEpoch maps a sync-committee subnet to the epoch after which it
	// is no longer needed.
	untilEpoch map[Subnet]primitives.Epoch
}

func newSyncScheduler(discovery *discoveryCoordinator) *syncScheduler {
	return &syncScheduler{
		discovery:  discovery,
		untilEpoch: make(map[Subnet]primitives.Epoch),
	}
}

// Submit processes a batch of sync-committee subscriptions, emitting
// messages per subnet in the order described by §4.4.
func (s *syncScheduler) Submit(subs []SyncCommitteeSubscription) []Message {
	var msgs []Message

	for _, sub := range subs {
		subnetIDs, err := subnetmath.ComputeSubnetsForSyncCommittee(sub.SyncCommitteeIndices)
		if err != nil {
			log.WithError(errors.Wrap(err, errSubnetComputationFailed.Error())).
				WithField("validator_index", sub.ValidatorIndex).Error("Could not compute sync committee subnets")
			continue
		}

		cache.SyncSubnetIDs.AddSyncCommitteeSubnets(sub.Pubkey, syncCommitteePeriod(sub.UntilEpoch), subnetIDs)

		for _, id := range subnetIDs {
			subnet := SyncCommitteeSubnet(id)
			minTTL := slots.EpochStart(sub.UntilEpoch)

			existing, ok := s.untilEpoch[subnet]
			switch {
			case ok && existing >= sub.UntilEpoch:
				// Lower or equal until_epoch: idempotent, no output.
				continue
			case ok:
				// Refresh: Subscribe/EnrAdd already emitted previously.
				s.untilEpoch[subnet] = sub.UntilEpoch
				if msg, batched := s.discovery.Batch([]DiscoveryTarget{{Subnet: subnet, MinTTLSlot: minTTL}}); batched {
					msgs = append(msgs, msg)
				}
			default:
				s.untilEpoch[subnet] = sub.UntilEpoch
				msgs = append(msgs, subscribeMsg(subnet), enrAddMsg(subnet))
				if msg, batched := s.discovery.Batch([]DiscoveryTarget{{Subnet: subnet, MinTTLSlot: minTTL}}); batched {
					msgs = append(msgs, msg)
				}
			}
		}
	}

	return msgs
}

// Tick unsubscribes any sync subnet whose buffer (until_epoch + 2 epochs)
// has elapsed by currentSlot.
func (s *syncScheduler) Tick(currentSlot primitives.Slot) []Message {
	var msgs []Message

	expired := make([]Subnet, 0)
	for subnet, until := range s.untilEpoch {
		unsubscribeSlot := slots.EpochStart(until + syncUnsubscribeBuffer)
		if currentSlot >= unsubscribeSlot {
			expired = append(expired, subnet)
		}
	}
	sortSubnets(expired)
	for _, subnet := range expired {
		msgs = append(msgs, unsubscribeMsg(subnet), enrRemoveMsg(subnet))
		delete(s.untilEpoch, subnet)
	}
	return msgs
}

// Subscriptions returns the sync-committee subnets currently tracked, in
// ascending id order.
func (s *syncScheduler) Subscriptions() []Subnet {
	out := make([]Subnet, 0, len(s.untilEpoch))
	for subnet := range s.untilEpoch {
		out = append(out, subnet)
	}
	sortSubnets(out)
	return out
}

// IsSubscribed reports whether subnet has a live sync-committee entry.
func (s *syncScheduler) IsSubscribed(subnet Subnet) bool {
	_, ok := s.untilEpoch[subnet]
	return ok
}

// syncCommitteePeriod converts an epoch into the sync-committee period it
// falls in, for recording into the shared cache.SyncSubnetIDs bookkeeping
// cache (mirroring permanent.go's use of cache.SubnetIDs for its own
// commitment).
func syncCommitteePeriod(epoch primitives.Epoch) primitives.Epoch {
	spp := params.BeaconConfig().EpochsPerSyncCommitteePeriod
	if spp == 0 {
		return 0
	}
	return primitives.Epoch(uint64(epoch) / spp)
}
