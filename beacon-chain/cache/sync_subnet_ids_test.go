package cache

import (
	"testing"

	"github.com/prysmaticlabs/subnet-relay/consensus-types/primitives"
	"github.com/stretchr/testify/require"
)

func TestSyncSubnetIDsCache_Roundtrip(t *testing.T) {
	c := newSyncSubnetIDs()

	for i := 0; i < 20; i++ {
		pubkey := [48]byte{byte(i)}
		c.AddSyncCommitteeSubnets(pubkey[:], 100, []uint64{uint64(i)})
	}

	for i := uint64(0); i < 20; i++ {
		pubkey := [48]byte{byte(i)}
		idxs, _, ok := c.GetSyncCommitteeSubnets(pubkey[:], 100)
		require.Equal(t, true, ok)
		require.Equal(t, i, idxs[0])
	}

	require.Equal(t, 20, len(c.GetAllSubnets(100)))
}

func TestSyncSubnetIDsCache_StalePeriodIgnored(t *testing.T) {
	c := newSyncSubnetIDs()
	pubkey := [48]byte{1}
	c.AddSyncCommitteeSubnets(pubkey[:], primitives.Epoch(100), []uint64{1})

	_, _, ok := c.GetSyncCommitteeSubnets(pubkey[:], primitives.Epoch(101))
	require.Equal(t, false, ok)

	_, _, ok = c.GetSyncCommitteeSubnets(pubkey[:], primitives.Epoch(100))
	require.Equal(t, true, ok)
}
