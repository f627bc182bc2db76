package subnets

import (
	"crypto/rand"
	"testing"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/p2p/enode"
	libp2pcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/prysmaticlabs/subnet-relay/config/params"
	"github.com/stretchr/testify/require"
)

func newTestLocalNode(t *testing.T) *enode.LocalNode {
	t.Helper()
	db, err := enode.OpenDB("")
	require.NoError(t, err)
	t.Cleanup(db.Close)
	priv, err := gethcrypto.GenerateKey()
	require.NoError(t, err)
	return enode.NewLocalNode(db, priv)
}

// newTestLocalNodeFromLibp2pKey builds a local node from a libp2p-style
// secp256k1 identity, the way the host's peer identity is generated
// elsewhere in a full node -- so the ENR helpers here are exercised against
// the same key material the network stack actually uses, not just a raw
// go-ethereum key.
func newTestLocalNodeFromLibp2pKey(t *testing.T) *enode.LocalNode {
	t.Helper()
	priv, _, err := libp2pcrypto.GenerateSecp256k1Key(rand.Reader)
	require.NoError(t, err)
	raw, err := priv.Raw()
	require.NoError(t, err)
	ecdsaKey, err := gethcrypto.ToECDSA(raw)
	require.NoError(t, err)

	db, err := enode.OpenDB("")
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return enode.NewLocalNode(db, ecdsaKey)
}

func TestAddAndRemoveAttSubnet(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	ln := newTestLocalNode(t)

	require.NoError(t, AddAttSubnet(ln, 3))
	require.NoError(t, AddAttSubnet(ln, 7))

	subs, err := AttSubnets(ln.Node().Record())
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 7}, subs)

	require.NoError(t, RemoveAttSubnet(ln, 3))
	subs, err = AttSubnets(ln.Node().Record())
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, subs)
}

func TestAddAndRemoveSyncSubnet(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	ln := newTestLocalNode(t)

	require.NoError(t, AddSyncSubnet(ln, 1))
	subs, err := SyncSubnets(ln.Node().Record())
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, subs)

	require.NoError(t, RemoveSyncSubnet(ln, 1))
	subs, err = SyncSubnets(ln.Node().Record())
	require.NoError(t, err)
	require.Equal(t, []uint64{}, subs)
}

func TestAttSubnets_EmptyRecord(t *testing.T) {
	ln := newTestLocalNode(t)
	subs, err := AttSubnets(ln.Node().Record())
	require.NoError(t, err)
	require.Equal(t, 0, len(subs))
}

func TestComputeSubscribedSubnets_Libp2pIdentity(t *testing.T) {
	params.SetupTestConfigCleanup(t)
	ln := newTestLocalNodeFromLibp2pKey(t)

	ids, err := ComputeSubscribedSubnets(ln.ID())
	require.NoError(t, err)
	require.Equal(t, int(params.BeaconConfig().SubnetsPerNode), len(ids))
}
