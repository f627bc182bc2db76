// Package subnetservice implements the attestation & sync-committee subnet
// subscription service: it turns a stream of validator-duty subscriptions
// into a live set of gossip subnet memberships, ENR bits, and discovery
// requests. See beacon-chain/subnetservice/service.go for the entry point.
package subnetservice

import (
	"fmt"

	"github.com/prysmaticlabs/subnet-relay/consensus-types/primitives"
)

// SubnetKind distinguishes the two subnet families.
type SubnetKind uint8

const (
	// AttestationSubnetKind tags an attestation gossip subnet.
	AttestationSubnetKind SubnetKind = iota
	// SyncCommitteeSubnetKind tags a sync-committee gossip subnet.
	SyncCommitteeSubnetKind
)

// Subnet is a tagged identifier for a gossip subnet: either an attestation
// subnet (0-63) or a sync-committee subnet (0-3 on mainnet). Subnets compare
// by kind first, then id, so an attestation subnet 2 and a sync-committee
// subnet 2 are distinct keys.
type Subnet struct {
	Kind SubnetKind
	ID   uint64
}

// AttestationSubnet constructs an attestation-kind Subnet.
func AttestationSubnet(id uint64) Subnet {
	return Subnet{Kind: AttestationSubnetKind, ID: id}
}

// SyncCommitteeSubnet constructs a sync-committee-kind Subnet.
func SyncCommitteeSubnet(id uint64) Subnet {
	return Subnet{Kind: SyncCommitteeSubnetKind, ID: id}
}

func (s Subnet) String() string {
	if s.Kind == SyncCommitteeSubnetKind {
		return fmt.Sprintf("sync_committee_subnet_%d", s.ID)
	}
	return fmt.Sprintf("attestation_subnet_%d", s.ID)
}

// AttestationSubscription is a validator's request to be reachable for
// attestation gossip at a given slot.
type AttestationSubscription struct {
	ValidatorIndex       uint64
	CommitteeIndex       uint64
	Slot                 primitives.Slot
	CommitteeCountAtSlot uint64
	IsAggregator         bool
}

// SyncCommitteeSubscription is a validator's request to be reachable for
// sync-committee gossip until the given epoch.
type SyncCommitteeSubscription struct {
	ValidatorIndex       uint64
	Pubkey               []byte
	SyncCommitteeIndices map[uint64]struct{}
	UntilEpoch           primitives.Epoch
}

// MessageKind tags the variants of SubnetServiceMessage.
type MessageKind uint8

const (
	// Subscribe asks the gossip layer to join a subnet's topic.
	Subscribe MessageKind = iota
	// Unsubscribe asks the gossip layer to leave a subnet's topic.
	Unsubscribe
	// EnrAdd asks the ENR to advertise membership of a subnet.
	EnrAdd
	// EnrRemove asks the ENR to stop advertising membership of a subnet.
	EnrRemove
	// DiscoverPeers asks the discovery layer to find peers for a batch of
	// subnets.
	DiscoverPeers
)

// DiscoveryTarget is one (subnet, min_ttl_slot) pair inside a bulk
// DiscoverPeers request: min_ttl_slot is the latest slot by which
// discovered peers should still be useful.
type DiscoveryTarget struct {
	Subnet     Subnet
	MinTTLSlot primitives.Slot
	// AggregatorHint carries the is_aggregator flag of the subscription
	// that produced this target, as a discovery-priority hint only; it has
	// no effect on subnet membership or correctness (spec §9 open question).
	AggregatorHint bool
}

// Message is a single entry in the service's ordered output stream.
// Exactly one of the fields is meaningful, selected by Kind.
type Message struct {
	Kind    MessageKind
	Subnet  Subnet
	Targets []DiscoveryTarget // populated only when Kind == DiscoverPeers
}

func subscribeMsg(s Subnet) Message   { return Message{Kind: Subscribe, Subnet: s} }
func unsubscribeMsg(s Subnet) Message { return Message{Kind: Unsubscribe, Subnet: s} }
func enrAddMsg(s Subnet) Message      { return Message{Kind: EnrAdd, Subnet: s} }
func enrRemoveMsg(s Subnet) Message   { return Message{Kind: EnrRemove, Subnet: s} }

func discoverMsg(targets []DiscoveryTarget) Message {
	return Message{Kind: DiscoverPeers, Targets: targets}
}

func (k MessageKind) String() string {
	switch k {
	case Subscribe:
		return "Subscribe"
	case Unsubscribe:
		return "Unsubscribe"
	case EnrAdd:
		return "EnrAdd"
	case EnrRemove:
		return "EnrRemove"
	case DiscoverPeers:
		return "DiscoverPeers"
	default:
		return "Unknown"
	}
}
