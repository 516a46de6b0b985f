package wallet

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tokenquest/sdk-go/core/logging"
	"github.com/tokenquest/sdk-go/core/types"
	"github.com/tokenquest/sdk-go/core/util"
)

// ChangeHandler receives a snapshot after every session transition. It is
// called from the goroutine that caused the transition; implementations
// should hand off to their own loop instead of blocking.
type ChangeHandler func(types.SessionSnapshot)

// Session is the wallet session state machine. It is the single writer of
// connection, account and network-compliance state; every other component
// reads through Snapshot.
//
// External wallet events may arrive at any time, including while Connect or
// VerifyNetwork is in flight. The policy is last event wins: an event that
// lands during an in-flight operation overwrites the operation's assumptions,
// and the operation detects this through the generation counter instead of
// clobbering newer state with a stale result.
type Session struct {
	bridge   Bridge
	required types.ChainDescriptor

	mu         sync.RWMutex
	state      types.SessionState
	account    util.Address
	compliant  bool
	generation uint64

	onChange ChangeHandler
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithRequiredNetwork overrides the default required network descriptor.
func WithRequiredNetwork(desc types.ChainDescriptor) SessionOption {
	return func(s *Session) { s.required = desc }
}

// WithChangeHandler registers a handler notified on every transition.
func WithChangeHandler(fn ChangeHandler) SessionOption {
	return func(s *Session) { s.onChange = fn }
}

// NewSession creates a disconnected session over the given bridge. A nil
// bridge is allowed and makes every wallet operation fail with
// types.ErrWalletUnavailable.
func NewSession(bridge Bridge, opts ...SessionOption) *Session {
	s := &Session{
		bridge:   bridge,
		required: RequiredNetwork,
		state:    types.SessionDisconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a point-in-time copy of the session state.
func (s *Session) Snapshot() types.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() types.SessionSnapshot {
	connected := s.state == types.SessionConnectedCompliant ||
		s.state == types.SessionConnectedNonCompliant
	snap := types.SessionSnapshot{
		State:            s.state,
		Connected:        connected,
		NetworkCompliant: s.compliant,
		Generation:       s.generation,
	}
	if connected {
		snap.Account = s.account
	}
	return snap
}

// RequiredNetwork returns the descriptor this session enforces.
func (s *Session) RequiredNetwork() types.ChainDescriptor {
	return s.required
}

// Connect requests account access from the wallet. On success the session
// becomes connected and network verification runs immediately after; a
// verification failure leaves the session connected but non-compliant and is
// only logged here. An empty or denied response leaves the session
// disconnected and returns types.ErrConnectionRejected, which is retryable.
func (s *Session) Connect(ctx context.Context) (util.Address, error) {
	if s.bridge == nil {
		return util.Address{}, errors.WithStack(types.ErrWalletUnavailable)
	}

	s.mu.Lock()
	s.state = types.SessionConnecting
	s.generation++
	startGen := s.generation
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	accounts, reqErr := s.bridge.RequestAccounts(ctx)

	s.mu.Lock()
	if s.generation != startGen {
		// A wallet event resolved the session while the request was in
		// flight. Last event wins; report whatever state it left us in.
		snap := s.snapshotLocked()
		s.mu.Unlock()
		if snap.Connected {
			return snap.Account, nil
		}
		return util.Address{}, errors.Wrap(types.ErrConnectionRejected, "session changed during connect")
	}

	fail := func(msg string) (util.Address, error) {
		s.state = types.SessionDisconnected
		s.account = util.Address{}
		s.generation++
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return util.Address{}, errors.Wrap(types.ErrConnectionRejected, msg)
	}

	if reqErr != nil {
		logging.Logger.Warn("wallet denied account access", zap.Error(reqErr))
		return fail(reqErr.Error())
	}
	if len(accounts) == 0 {
		return fail("wallet returned no accounts")
	}
	account, err := util.NewAddress(accounts[0])
	if err != nil {
		return fail(err.Error())
	}

	s.account = account
	s.compliant = false
	s.state = types.SessionConnectedNonCompliant
	s.generation++
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if err := s.VerifyNetwork(ctx); err != nil {
		logging.Logger.Warn("network verification failed after connect",
			zap.String("account", account.Hex()), zap.Error(err))
	}
	return account, nil
}

// VerifyNetwork checks the wallet's active chain against the required one,
// attempting a switch and, for a chain the wallet does not know, a
// registration with the fixed descriptor. Any failure marks the session
// non-compliant but never reverts the connection status.
func (s *Session) VerifyNetwork(ctx context.Context) error {
	if s.bridge == nil {
		return errors.WithStack(types.ErrWalletUnavailable)
	}

	chainID, err := s.bridge.ChainID(ctx)
	if err != nil {
		s.setCompliant(false)
		return errors.Wrapf(types.ErrNetworkNonCompliant, "querying chain id: %v", err)
	}
	if util.ChainIDsEqual(chainID, s.required.ChainID) {
		s.setCompliant(true)
		return nil
	}

	switchErr := s.bridge.SwitchChain(ctx, s.required.ChainID)
	if switchErr == nil {
		s.setCompliant(true)
		return nil
	}
	if !IsChainNotAdded(switchErr) {
		s.setCompliant(false)
		return errors.Wrapf(types.ErrNetworkNonCompliant, "switching chain: %v", switchErr)
	}

	// The wallet does not know the target chain; register it.
	if err := s.bridge.AddChain(ctx, s.required); err != nil {
		s.setCompliant(false)
		return errors.Wrapf(types.ErrNetworkNonCompliant, "registering chain: %v", err)
	}
	chainID, err = s.bridge.ChainID(ctx)
	if err != nil || !util.ChainIDsEqual(chainID, s.required.ChainID) {
		s.setCompliant(false)
		return errors.Wrap(types.ErrNetworkNonCompliant, "chain still not active after registration")
	}
	s.setCompliant(true)
	return nil
}

// Disconnect resets the session to its initial state. Wallets expose no
// forced-disconnect request, so this is a local reset only.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.state = types.SessionDisconnected
	s.account = util.Address{}
	s.compliant = false
	s.generation++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// HandleAccountsChanged applies an accountsChanged wallet event. An empty
// list disconnects; a non-empty list silently replaces the active account.
func (s *Session) HandleAccountsChanged(accounts []string) {
	if len(accounts) == 0 {
		s.Disconnect()
		return
	}
	account, err := util.NewAddress(accounts[0])
	if err != nil {
		logging.Logger.Warn("ignoring accountsChanged with malformed address",
			zap.String("address", accounts[0]), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.account = account
	if s.compliant {
		s.state = types.SessionConnectedCompliant
	} else {
		s.state = types.SessionConnectedNonCompliant
	}
	s.generation++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// HandleChainChanged applies a chainChanged wallet event, re-evaluating
// compliance without touching connection state.
func (s *Session) HandleChainChanged(chainID string) {
	compliant := util.ChainIDsEqual(chainID, s.required.ChainID)

	s.mu.Lock()
	s.compliant = compliant
	switch s.state {
	case types.SessionConnectedCompliant, types.SessionConnectedNonCompliant:
		if compliant {
			s.state = types.SessionConnectedCompliant
		} else {
			s.state = types.SessionConnectedNonCompliant
		}
	}
	s.generation++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// DispatchEvent routes one wallet event to its handler.
func (s *Session) DispatchEvent(ev Event) {
	switch ev.Kind {
	case EventAccountsChanged:
		s.HandleAccountsChanged(ev.Accounts)
	case EventChainChanged:
		s.HandleChainChanged(ev.ChainID)
	default:
		logging.Logger.Debug("ignoring unknown wallet event", zap.String("kind", string(ev.Kind)))
	}
}

// Watch consumes bridge events until ctx is cancelled or the bridge closes
// its event channel. It returns immediately; dispatching happens on a
// background goroutine.
func (s *Session) Watch(ctx context.Context) {
	if s.bridge == nil {
		return
	}
	events := s.bridge.Events()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				s.DispatchEvent(ev)
			}
		}
	}()
}

func (s *Session) setCompliant(compliant bool) {
	s.mu.Lock()
	s.compliant = compliant
	switch s.state {
	case types.SessionConnectedCompliant, types.SessionConnectedNonCompliant:
		if compliant {
			s.state = types.SessionConnectedCompliant
		} else {
			s.state = types.SessionConnectedNonCompliant
		}
	}
	s.generation++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Session) notify(snap types.SessionSnapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
