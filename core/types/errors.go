package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds for every failure class the SDK can surface. Components catch
// external-capability failures at their boundary and wrap them with one of
// these sentinels, so callers can classify with errors.Is without depending
// on wire formats or wallet error codes.
var (
	// ErrUserInput covers validation-gate failures: missing or equal
	// tokens, unresolvable tokens, non-positive amounts. Not retryable
	// without changing the input.
	ErrUserInput = errors.New("invalid user input")

	// ErrWalletUnavailable means no wallet capability is present at all.
	// All wallet operations fail with it until a bridge is configured.
	ErrWalletUnavailable = errors.New("wallet unavailable")

	// ErrConnectionRejected means the wallet or the user denied account
	// access. Retryable by calling Connect again.
	ErrConnectionRejected = errors.New("wallet connection rejected")

	// ErrWalletNotConnected means an operation that requires a connected
	// wallet found the session disconnected.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrNetworkNonCompliant means the wallet's active chain does not
	// match the required chain and switching or registering it failed.
	// Does not affect connection status.
	ErrNetworkNonCompliant = errors.New("wallet network not compliant")

	// ErrRemoteService covers quote/execute service failures: unreachable,
	// timed out, or a service-reported error.
	ErrRemoteService = errors.New("remote service error")

	// ErrQuoteUnavailable is the quote-specific refinement of
	// ErrRemoteService; callers must clear any previously displayed quote.
	ErrQuoteUnavailable = fmt.Errorf("quote unavailable: %w", ErrRemoteService)

	// ErrQuoteSuperseded means a newer quote request was issued while this
	// one was in flight; the result must be discarded, not displayed.
	ErrQuoteSuperseded = errors.New("quote superseded by a newer request")

	// ErrPersistence covers key-value store read/write failures. The
	// affected component degrades to in-memory operation, never crashes.
	ErrPersistence = errors.New("persistence error")

	// ErrBusy means a swap was submitted while another one is still in
	// flight. The second call is rejected, never queued.
	ErrBusy = errors.New("another swap is already in flight")
)
