package cache

import (
	"testing"
	"time"

	"github.com/prysmaticlabs/subnet-relay/consensus-types/primitives"
	"github.com/stretchr/testify/require"
)

func TestSubnetIDsCache_RoundTrip(t *testing.T) {
	c := newSubnetIDs()
	slot := primitives.Slot(100)

	require.Equal(t, 0, len(c.GetAggregatorSubnetIDs(slot)))

	c.AddAggregatorSubnetID(slot, 1)
	require.Equal(t, []uint64{1}, c.GetAggregatorSubnetIDs(slot))

	c.AddAggregatorSubnetID(slot, 2)
	require.Equal(t, []uint64{1, 2}, c.GetAggregatorSubnetIDs(slot))

	require.Equal(t, 0, len(c.GetAttesterSubnetIDs(slot)))

	c.AddAttesterSubnetID(slot, 11)
	c.AddAttesterSubnetID(slot, 22)
	require.Equal(t, []uint64{11, 22}, c.GetAttesterSubnetIDs(slot))
}

func TestSubnetIDsCache_PersistentSubnets(t *testing.T) {
	c := newSubnetIDs()

	_, ok, _ := c.GetPersistentSubnets()
	require.Equal(t, false, ok)

	expiry := time.Now().Add(time.Hour)
	c.SetPersistentSubnets([]uint64{3, 9}, expiry)

	subs, ok, exp := c.GetPersistentSubnets()
	require.Equal(t, true, ok)
	require.Equal(t, []uint64{3, 9}, subs)
	require.Equal(t, expiry, exp)
}

func TestSubnetIDsCache_EmptyAllCaches(t *testing.T) {
	c := newSubnetIDs()
	c.AddAttesterSubnetID(1, 5)
	c.SetPersistentSubnets([]uint64{1}, time.Now())

	c.EmptyAllCaches()

	require.Equal(t, 0, len(c.GetAttesterSubnetIDs(1)))
	_, ok, _ := c.GetPersistentSubnets()
	require.Equal(t, false, ok)
}
