// Package wallet owns the wallet session state machine and the bridge to the
// external wallet capability.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/tokenquest/sdk-go/core/types"
)

// EIP-1193 provider error codes the session reacts to.
const (
	// CodeUserRejected: the user denied the request in the wallet UI.
	CodeUserRejected = 4001
	// CodeChainNotAdded: wallet_switchEthereumChain for a chain the wallet
	// does not know; the session follows up with AddChain.
	CodeChainNotAdded = 4902
)

// BridgeError is a wallet-reported failure with its provider error code.
type BridgeError struct {
	Code    int
	Message string
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
}

// IsUserRejected reports whether err is the wallet's user-denied error.
func IsUserRejected(err error) bool {
	var be *BridgeError
	return asBridgeError(err, &be) && be.Code == CodeUserRejected
}

// IsChainNotAdded reports whether err means the target chain is unknown to
// the wallet and must be registered first.
func IsChainNotAdded(err error) bool {
	var be *BridgeError
	return asBridgeError(err, &be) && be.Code == CodeChainNotAdded
}

func asBridgeError(err error, target **BridgeError) bool {
	return errors.As(err, target)
}

// EventKind distinguishes the subscribable wallet events.
type EventKind string

const (
	EventAccountsChanged EventKind = "accountsChanged"
	EventChainChanged    EventKind = "chainChanged"
)

// Event is one asynchronous wallet notification. Accounts is set for
// accountsChanged, ChainID for chainChanged.
type Event struct {
	Kind     EventKind
	Accounts []string
	ChainID  string
}

// Bridge is the capability contract the wallet provider has to satisfy.
// Request methods may prompt the user; Accounts never prompts. Events pushed
// by the provider arrive on the Events channel until the bridge is closed.
type Bridge interface {
	// RequestAccounts prompts for account access and returns the granted
	// accounts, primary first. An empty slice means access was not granted.
	RequestAccounts(ctx context.Context) ([]string, error)
	// Accounts returns the currently granted accounts without prompting.
	Accounts(ctx context.Context) ([]string, error)
	// ChainID returns the wallet's active chain identifier.
	ChainID(ctx context.Context) (string, error)
	// SwitchChain asks the wallet to activate the given chain.
	SwitchChain(ctx context.Context, chainID string) error
	// AddChain registers a chain the wallet does not know yet.
	AddChain(ctx context.Context, desc types.ChainDescriptor) error
	// Events delivers asynchronous wallet notifications. The channel is
	// closed when the bridge shuts down.
	Events() <-chan Event
}
