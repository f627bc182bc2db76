package subnetservice

import (
	"testing"

	"github.com/prysmaticlabs/subnet-relay/config/params"
	"github.com/prysmaticlabs/subnet-relay/consensus-types/primitives"
	"github.com/stretchr/testify/require"
)

func emptyPermanent() *permanentSubnets {
	return &permanentSubnets{set: make(map[Subnet]struct{})}
}

func TestAttestationScheduler_DropsPastSlot(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	sched := newAttestationScheduler(emptyPermanent(), newDiscoveryCoordinator(nil))

	msgs := sched.Submit([]AttestationSubscription{
		{ValidatorIndex: 1, CommitteeIndex: 0, Slot: 5, CommitteeCountAtSlot: 1},
	}, 100)
	require.Empty(t, msgs)
	require.Empty(t, sched.Subscriptions())
}

func TestAttestationScheduler_SkipsPermanentSubnet(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	subnetID, err := subnetForAttestationFixture(100, 0, 1)
	require.NoError(t, err)

	permanent := &permanentSubnets{set: map[Subnet]struct{}{AttestationSubnet(subnetID): {}}}
	sched := newAttestationScheduler(permanent, newDiscoveryCoordinator(nil))

	msgs := sched.Submit([]AttestationSubscription{
		{ValidatorIndex: 1, CommitteeIndex: 0, Slot: 100, CommitteeCountAtSlot: 1},
	}, 100)
	require.Empty(t, msgs)
	require.Empty(t, sched.Subscriptions())
}

func TestAttestationScheduler_ImmediateSubscribeWithinLookahead(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	sched := newAttestationScheduler(emptyPermanent(), newDiscoveryCoordinator(nil))

	msgs := sched.Submit([]AttestationSubscription{
		{ValidatorIndex: 1, CommitteeIndex: 0, Slot: 100, CommitteeCountAtSlot: 1},
	}, 100)
	require.Equal(t, 1, len(msgs))
	require.Equal(t, Subscribe, msgs[0].Kind)
	require.Equal(t, 1, len(sched.Subscriptions()))
}

func TestAttestationScheduler_DefersBeyondLookahead(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	sched := newAttestationScheduler(emptyPermanent(), newDiscoveryCoordinator(nil))

	msgs := sched.Submit([]AttestationSubscription{
		{ValidatorIndex: 1, CommitteeIndex: 1, Slot: 110, CommitteeCountAtSlot: 1},
	}, 100)

	// No Subscribe yet, only the batched discovery request.
	require.Equal(t, 1, len(msgs))
	require.Equal(t, DiscoverPeers, msgs[0].Kind)
	require.Equal(t, 1, len(msgs[0].Targets))

	// The subnet is tracked (for expiry) but not yet Subscribe'd.
	require.Equal(t, 1, len(sched.Subscriptions()))

	tickMsgs := sched.Tick(109)
	require.Equal(t, 1, len(tickMsgs))
	require.Equal(t, Subscribe, tickMsgs[0].Kind)
}

func TestAttestationScheduler_MergesExpiryKeepsLatest(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	sched := newAttestationScheduler(emptyPermanent(), newDiscoveryCoordinator(nil))

	sched.Submit([]AttestationSubscription{
		{ValidatorIndex: 1, CommitteeIndex: 0, Slot: 100, CommitteeCountAtSlot: 1},
	}, 100)
	subnet := sched.Subscriptions()[0]
	firstExpiry := sched.expiry[subnet]

	// 132%32 = 100%32 = 4, so slot 132 / committee 0 lands on the same subnet.
	sched.Submit([]AttestationSubscription{
		{ValidatorIndex: 2, CommitteeIndex: 0, Slot: 132, CommitteeCountAtSlot: 1},
	}, 100)
	require.Equal(t, 1, len(sched.Subscriptions()), "same subnet should not create a second entry")
	require.Greater(t, uint64(sched.expiry[subnet]), uint64(firstExpiry))
}

func TestAttestationScheduler_TickUnsubscribesExpired(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	sched := newAttestationScheduler(emptyPermanent(), newDiscoveryCoordinator(nil))

	sched.Submit([]AttestationSubscription{
		{ValidatorIndex: 1, CommitteeIndex: 0, Slot: 100, CommitteeCountAtSlot: 1},
	}, 100)
	require.Equal(t, 1, len(sched.Subscriptions()))

	msgs := sched.Tick(101)
	require.Equal(t, 1, len(msgs))
	require.Equal(t, Unsubscribe, msgs[0].Kind)
	require.Empty(t, sched.Subscriptions())
}

// subnetForAttestationFixture mirrors ComputeSubnetForAttestation's formula
// against the default mainnet config, so tests can pre-compute which subnet
// a subscription will land on without importing the network/subnets package
// directly (kept local to avoid an import cycle concern during refactors).
func subnetForAttestationFixture(slot primitives.Slot, committeeIndex, committeeCountAtSlot uint64) (uint64, error) {
	cfg := params.BeaconConfig()
	slotsSinceStart := committeeCountAtSlot*(uint64(slot)%cfg.SlotsPerEpoch) + committeeIndex
	return slotsSinceStart % cfg.AttestationSubnetCount, nil
}
