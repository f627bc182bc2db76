package subnets

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/subnet-relay/config/params"
	"github.com/prysmaticlabs/subnet-relay/consensus-types/primitives"
)

// ComputeSubnetForAttestation returns the attestation subnet id a committee
// attests on, per the mainnet chain-spec formula:
//
//	committees_since_epoch_start = committee_count_at_slot * (slot % slots_per_epoch)
//	slots_since_epoch_start = committees_since_epoch_start + committee_index
//	subnet_id = slots_since_epoch_start % attestation_subnet_count
//
// This must match external consumers (the validator client, other nodes'
// gossip layers) bit-exactly; it is not reinterpreted anywhere else.
func ComputeSubnetForAttestation(slot primitives.Slot, committeeIndex, committeeCountAtSlot uint64) (uint64, error) {
	cfg := params.BeaconConfig()
	if cfg.SlotsPerEpoch == 0 || cfg.AttestationSubnetCount == 0 {
		return 0, errors.New("chain spec not initialized")
	}
	slotSinceStart := committeeCountAtSlot*(uint64(slot)%cfg.SlotsPerEpoch) + committeeIndex
	return slotSinceStart % cfg.AttestationSubnetCount, nil
}

// ComputeSubnetsForSyncCommittee maps a set of sync-committee member
// indices to the sync subnet ids their positions fall into. A validator can
// sit in more than one sync subnet if its committee index is duplicated
// (which happens for large effective balances), hence the input is a set
// and the output may be smaller than it.
func ComputeSubnetsForSyncCommittee(committeeIndices map[uint64]struct{}) ([]uint64, error) {
	cfg := params.BeaconConfig()
	if cfg.SyncCommitteeSubnetCount == 0 {
		return nil, errors.New("chain spec not initialized")
	}
	// SYNC_COMMITTEE_SIZE is not part of the chain-spec config here; it is
	// fixed at the mainnet value of 512. Subnets partition the committee
	// evenly, so position-per-subnet is committee size / subnet count, and
	// indices past the last subnet are placed in the last subnet.
	const syncCommitteeSize = 512
	perSubnet := syncCommitteeSize / cfg.SyncCommitteeSubnetCount
	if perSubnet == 0 {
		perSubnet = 1
	}

	seen := make(map[uint64]struct{}, cfg.SyncCommitteeSubnetCount)
	subnets := make([]uint64, 0, cfg.SyncCommitteeSubnetCount)
	for idx := range committeeIndices {
		subnet := idx / perSubnet
		if subnet >= cfg.SyncCommitteeSubnetCount {
			subnet = cfg.SyncCommitteeSubnetCount - 1
		}
		if _, ok := seen[subnet]; ok {
			continue
		}
		seen[subnet] = struct{}{}
		subnets = append(subnets, subnet)
	}
	return subnets, nil
}
