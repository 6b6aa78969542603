package bootstrap

import "errors"

// Sentinel errors for the bootstrap state machine.
var (
	// ErrConfigUnavailable means every path to a service descriptor set
	// failed: the cached token didn't claim, and the device-code flow
	// didn't complete either.
	ErrConfigUnavailable = errors.New("bootstrap: no path to service descriptors succeeded")

	// ErrDeviceCodeTimeout means the poll budget was exhausted without a
	// "granted" status from /f/challenge/.
	ErrDeviceCodeTimeout = errors.New("bootstrap: device code grant timed out")

	// ErrMalformedGrant means /f/challenge/ reported "granted" but omitted
	// the token field.
	ErrMalformedGrant = errors.New("bootstrap: granted challenge response missing token")

	// ErrPostGrantClaimFailed means the claim performed immediately after
	// a successful device-code grant failed. Unlike the pre-grant claim
	// attempt, this one is fatal.
	ErrPostGrantClaimFailed = errors.New("bootstrap: claim after device-code grant failed")
)
