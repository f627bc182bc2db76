package subnetservice

import "github.com/prysmaticlabs/subnet-relay/config/params"

// discoveryCoordinator owns the policy described in §4.5: dedup subnets
// within a batch, cap the batch at AttestationSubnetCount, and skip subnets
// the external peer manager already considers well-peered. It holds no
// subnet state of its own.
type discoveryCoordinator struct {
	// wellPeered reports whether a subnet already has enough peers and so
	// doesn't need a fresh discovery lookup. It is supplied by the external
	// peer-manager; nil means "never well-peered" (always discover), which
	// is the conservative default.
	wellPeered func(Subnet) bool
}

func newDiscoveryCoordinator(wellPeered func(Subnet) bool) *discoveryCoordinator {
	return &discoveryCoordinator{wellPeered: wellPeered}
}

func (d *discoveryCoordinator) isWellPeered(s Subnet) bool {
	if d.wellPeered == nil {
		return false
	}
	return d.wellPeered(s)
}

// Batch dedups candidates by subnet, drops any that are already well-peered,
// caps the result at AttestationSubnetCount, and returns a DiscoverPeers
// message. ok is false if nothing survives filtering, per the "non-empty
// sequence" requirement on DiscoveryRequest (spec §3).
func (d *discoveryCoordinator) Batch(candidates []DiscoveryTarget) (Message, bool) {
	maxLen := int(params.BeaconConfig().AttestationSubnetCount)

	seen := make(map[Subnet]struct{}, len(candidates))
	out := make([]DiscoveryTarget, 0, len(candidates))
	for _, c := range candidates {
		if d.isWellPeered(c.Subnet) {
			continue
		}
		if _, dup := seen[c.Subnet]; dup {
			continue
		}
		seen[c.Subnet] = struct{}{}
		out = append(out, c)
		if len(out) >= maxLen {
			break
		}
	}
	if len(out) == 0 {
		return Message{}, false
	}
	return discoverMsg(out), true
}
