// Package params holds the chain-spec configuration values consumed by the
// subnet subscription service. Values are grouped into a single struct and
// reached through a process-wide singleton, the way Prysm's beacon-chain
// config is consumed across packages.
package params

import "time"

// BeaconChainConfig is the chain-spec surface the subnet service depends on.
// It is intentionally narrow: only the fields that drive subnet scheduling
// are present, not the full mainnet spec.
type BeaconChainConfig struct {
	// SubnetsPerNode is the number of attestation subnets a node permanently
	// subscribes to, derived from its node identity.
	SubnetsPerNode uint64

	// AttestationSubnetCount is the total number of attestation gossip
	// subnets partitioning committee traffic.
	AttestationSubnetCount uint64

	// SyncCommitteeSubnetCount is the total number of sync-committee gossip
	// subnets.
	SyncCommitteeSubnetCount uint64

	// MinPeerDiscoverySlotLookAhead is the minimum slot runway required
	// before a subscription is considered worth a discovery lookup.
	MinPeerDiscoverySlotLookAhead uint64

	// SecondsPerSlot is the wall-clock duration of one slot.
	SecondsPerSlot time.Duration

	// SlotsPerEpoch is the number of slots making up one epoch.
	SlotsPerEpoch uint64

	// EpochsPerSyncCommitteePeriod is the number of epochs in one
	// sync-committee period. The subnet service uses it only to compute the
	// period recorded in the sync-subnet bookkeeping cache; the sync-committee
	// unsubscribe buffer is a fixed 2 epochs and does not depend on it.
	EpochsPerSyncCommitteePeriod uint64
}

// MainnetConfig returns mainnet chain-spec defaults. Tests that need a
// shorter slot duration build their own config with OverrideBeaconConfig.
func MainnetConfig() *BeaconChainConfig {
	return &BeaconChainConfig{
		SubnetsPerNode:                4,
		AttestationSubnetCount:        64,
		SyncCommitteeSubnetCount:      4,
		MinPeerDiscoverySlotLookAhead: 6,
		SecondsPerSlot:                12 * time.Second,
		SlotsPerEpoch:                 32,
		EpochsPerSyncCommitteePeriod:  256,
	}
}

var beaconConfig = MainnetConfig()

// BeaconConfig returns the process-wide chain-spec configuration.
func BeaconConfig() *BeaconChainConfig {
	return beaconConfig
}

// OverrideBeaconConfig replaces the process-wide configuration. Callers in
// production code should not call this directly; use
// SetupTestConfigCleanup in tests.
func OverrideBeaconConfig(cfg *BeaconChainConfig) {
	beaconConfig = cfg
}
