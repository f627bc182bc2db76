package subnetservice

import "github.com/pkg/errors"

// Error kinds recovered locally by the service; none of them is ever
// returned to the caller of ValidatorSubscriptions or
// SyncCommitteeSubscriptions, matching the fire-and-forget contract the
// validator layer expects (spec §7).
var (
	// errPastSlot: the attestation slot named by the subscription has
	// already elapsed.
	errPastSlot = errors.New("subnetservice: attestation slot already in the past")

	// errSubnetComputationFailed: the chain-spec subnet function refused
	// its inputs.
	errSubnetComputationFailed = errors.New("subnetservice: subnet computation failed")

	// errClockUnavailable: the slot clock has not started yet (pre-genesis).
	errClockUnavailable = errors.New("subnetservice: slot clock unavailable")
)
