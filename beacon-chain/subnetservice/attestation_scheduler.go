package subnetservice

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/subnet-relay/config/params"
	"github.com/prysmaticlabs/subnet-relay/consensus-types/primitives"
	subnetmath "github.com/prysmaticlabs/subnet-relay/network/subnets"
)

// attestationScheduler implements §4.3: per-subnet expiry timers driven by
// validator attestation duties, with overlapping durations merged by
// keeping the later expiry.
type attestationScheduler struct {
	permanent *permanentSubnets
	discovery *discoveryCoordinator

	// expiry maps a short-lived attestation subnet to the slot at which it
	// should be unsubscribed.
	expiry map[Subnet]primitives.Slot

	// deferred holds, per emit slot, the subnets whose Subscribe message was
	// held back to run one slot early relative to the attestation slot
	// (step 5a of §4.3).
	deferred map[primitives.Slot][]Subnet
}

func newAttestationScheduler(permanent *permanentSubnets, discovery *discoveryCoordinator) *attestationScheduler {
	return &attestationScheduler{
		permanent: permanent,
		discovery: discovery,
		expiry:    make(map[Subnet]primitives.Slot),
		deferred:  make(map[primitives.Slot][]Subnet),
	}
}

// Submit processes a batch of attestation subscriptions and returns the
// messages they produce, in the order specified by §4.3: per-subscription
// immediate Subscribes as they're decided, followed by one batched
// DiscoverPeers at the end of the iteration.
func (a *attestationScheduler) Submit(subs []AttestationSubscription, currentSlot primitives.Slot) []Message {
	var msgs []Message
	var candidates []DiscoveryTarget
	lookAhead := primitives.Slot(params.BeaconConfig().MinPeerDiscoverySlotLookAhead)

	for _, sub := range subs {
		if sub.Slot < currentSlot {
			log.WithError(errPastSlot).WithField("validator_index", sub.ValidatorIndex).Debug("Dropping attestation subscription")
			continue
		}

		subnetID, err := subnetmath.ComputeSubnetForAttestation(sub.Slot, sub.CommitteeIndex, sub.CommitteeCountAtSlot)
		if err != nil {
			log.WithError(errors.Wrap(err, errSubnetComputationFailed.Error())).
				WithField("validator_index", sub.ValidatorIndex).Error("Could not compute attestation subnet")
			continue
		}
		subnet := AttestationSubnet(subnetID)

		if a.permanent.Contains(subnet) {
			// Already a permanent member; no Subscribe, no discovery, no
			// expiry entry (spec I3).
			continue
		}

		expirySlot := sub.Slot + 1

		if existing, ok := a.expiry[subnet]; ok {
			if expirySlot > existing {
				a.expiry[subnet] = expirySlot
			}
			continue
		}

		a.expiry[subnet] = expirySlot

		if sub.Slot-currentSlot >= lookAhead {
			deferredAt := sub.Slot - 1
			a.deferred[deferredAt] = append(a.deferred[deferredAt], subnet)
			candidates = append(candidates, DiscoveryTarget{
				Subnet:         subnet,
				MinTTLSlot:     expirySlot,
				AggregatorHint: sub.IsAggregator,
			})
		} else {
			msgs = append(msgs, subscribeMsg(subnet))
		}
	}

	if msg, ok := a.discovery.Batch(candidates); ok {
		msgs = append(msgs, msg)
	}
	return msgs
}

// Tick drains entries that have expired and fires subscribes that were
// deferred for this exact slot, in that order (§4.3 "Per-slot tick").
func (a *attestationScheduler) Tick(currentSlot primitives.Slot) []Message {
	var msgs []Message

	expired := make([]Subnet, 0)
	for subnet, expiry := range a.expiry {
		if currentSlot >= expiry {
			expired = append(expired, subnet)
		}
	}
	sortSubnets(expired)
	for _, subnet := range expired {
		msgs = append(msgs, unsubscribeMsg(subnet))
		delete(a.expiry, subnet)
	}

	deferred := a.deferred[currentSlot]
	delete(a.deferred, currentSlot)
	sortSubnets(deferred)
	for _, subnet := range deferred {
		if a.permanent.Contains(subnet) {
			continue
		}
		if _, stillPending := a.expiry[subnet]; !stillPending {
			// Expired before its deferred subscribe could fire; nothing to
			// do (the entry was already removed by an Unsubscribe).
			continue
		}
		msgs = append(msgs, subscribeMsg(subnet))
	}

	return msgs
}

// Subscriptions returns the short-lived attestation subnets currently
// tracked, in ascending id order.
func (a *attestationScheduler) Subscriptions() []Subnet {
	out := make([]Subnet, 0, len(a.expiry))
	for s := range a.expiry {
		out = append(out, s)
	}
	sortSubnets(out)
	return out
}

// IsSubscribed reports whether subnet has a live short-lived entry.
func (a *attestationScheduler) IsSubscribed(s Subnet) bool {
	_, ok := a.expiry[s]
	return ok
}
