package subnetservice

import (
	"time"

	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/subnet-relay/beacon-chain/cache"
	"github.com/prysmaticlabs/subnet-relay/consensus-types/primitives"
	subnetmath "github.com/prysmaticlabs/subnet-relay/network/subnets"
)

// permanentSubnets holds the fixed set of attestation subnets this node is
// always a member of, derived once from its node identity at construction
// (spec I1). The set never changes for the life of the process.
type permanentSubnets struct {
	set map[Subnet]struct{}
}

// newPermanentSubnets derives SubnetsPerNode subnets from nodeID and records
// them in the shared subnet-id cache for diagnostics.
func newPermanentSubnets(nodeID enode.ID) (*permanentSubnets, error) {
	ids, err := subnetmath.ComputeSubscribedSubnets(nodeID)
	if err != nil {
		return nil, errors.Wrap(err, "could not derive permanent subnets from node identity")
	}
	set := make(map[Subnet]struct{}, len(ids))
	for _, id := range ids {
		set[AttestationSubnet(id)] = struct{}{}
	}
	cache.SubnetIDs.SetPersistentSubnets(ids, neverExpires())
	return &permanentSubnets{set: set}, nil
}

// Contains reports whether s is part of the permanent set.
func (p *permanentSubnets) Contains(s Subnet) bool {
	_, ok := p.set[s]
	return ok
}

// Subscriptions returns the permanent subnets in a stable, deterministic
// order (ascending id) -- observable via Service.PermanentSubscriptions.
func (p *permanentSubnets) Subscriptions() []Subnet {
	out := make([]Subnet, 0, len(p.set))
	for s := range p.set {
		out = append(out, s)
	}
	sortSubnets(out)
	return out
}

func sortSubnets(s []Subnet) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].ID < s[j-1].ID; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// startupMessages returns the messages emitted at construction time per
// §4.2: Subscribe then EnrAdd for each permanent subnet, in ascending id
// order, followed by exactly one DiscoverPeers batch carrying all of them
// with a long TTL.
func (p *permanentSubnets) startupMessages(longTTL primitives.Slot) []Message {
	subs := p.Subscriptions()
	msgs := make([]Message, 0, len(subs)*2+1)
	targets := make([]DiscoveryTarget, 0, len(subs))
	for _, s := range subs {
		msgs = append(msgs, subscribeMsg(s), enrAddMsg(s))
		targets = append(targets, DiscoveryTarget{Subnet: s, MinTTLSlot: longTTL})
	}
	if len(targets) > 0 {
		msgs = append(msgs, discoverMsg(targets))
	}
	return msgs
}

// neverExpires is a far-future timestamp used for the permanent-subnet
// cache entry, which has no real expiry.
func neverExpires() time.Time {
	return time.Now().AddDate(100, 0, 0)
}
