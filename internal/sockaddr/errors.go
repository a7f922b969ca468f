package sockaddr

import "errors"

// Sentinel errors for Address invariant violations, mirroring
// SPEC_FULL.md §7's Address error taxonomy.
var (
	// ErrUnknownAddressType is raised when a presentation string parses as
	// neither a valid IPv4 nor a valid IPv6 address.
	ErrUnknownAddressType = errors.New("sockaddr: unknown address type")

	// ErrUndefinedFamily is raised when Port or IP is called on a zero
	// value Address that was never assigned a family.
	ErrUndefinedFamily = errors.New("sockaddr: undefined address family")
)
