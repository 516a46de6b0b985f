package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenquest/sdk-go/core/types"
)

const (
	testAccount      = "0x1111111111111111111111111111111111111111"
	otherTestAccount = "0x2222222222222222222222222222222222222222"
)

// fakeBridge is a scriptable Bridge for session tests.
type fakeBridge struct {
	requestAccounts func(ctx context.Context) ([]string, error)
	chainID         func(ctx context.Context) (string, error)
	switchChain     func(ctx context.Context, chainID string) error
	addChain        func(ctx context.Context, desc types.ChainDescriptor) error
	events          chan Event

	switchCalls int
	addCalls    int
}

var _ Bridge = (*fakeBridge)(nil)

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		requestAccounts: func(context.Context) ([]string, error) {
			return []string{testAccount}, nil
		},
		chainID: func(context.Context) (string, error) {
			return RequiredNetwork.ChainID, nil
		},
		events: make(chan Event, 4),
	}
}

func (b *fakeBridge) RequestAccounts(ctx context.Context) ([]string, error) {
	return b.requestAccounts(ctx)
}

func (b *fakeBridge) Accounts(ctx context.Context) ([]string, error) {
	return b.requestAccounts(ctx)
}

func (b *fakeBridge) ChainID(ctx context.Context) (string, error) {
	return b.chainID(ctx)
}

func (b *fakeBridge) SwitchChain(ctx context.Context, chainID string) error {
	b.switchCalls++
	if b.switchChain == nil {
		return nil
	}
	return b.switchChain(ctx, chainID)
}

func (b *fakeBridge) AddChain(ctx context.Context, desc types.ChainDescriptor) error {
	b.addCalls++
	if b.addChain == nil {
		return nil
	}
	return b.addChain(ctx, desc)
}

func (b *fakeBridge) Events() <-chan Event {
	return b.events
}

func TestConnectSuccessOnCompliantNetwork(t *testing.T) {
	ctx := context.Background()
	s := NewSession(newFakeBridge())

	account, err := s.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, testAccount, account.Hex())

	snap := s.Snapshot()
	assert.Equal(t, types.SessionConnectedCompliant, snap.State)
	assert.True(t, snap.Connected)
	assert.True(t, snap.NetworkCompliant)
	assert.Equal(t, testAccount, snap.Account.Hex())
}

func TestConnectRejectedByUser(t *testing.T) {
	ctx := context.Background()
	bridge := newFakeBridge()
	bridge.requestAccounts = func(context.Context) ([]string, error) {
		return nil, &BridgeError{Code: CodeUserRejected, Message: "User rejected the request."}
	}
	s := NewSession(bridge)

	_, err := s.Connect(ctx)
	assert.ErrorIs(t, err, types.ErrConnectionRejected)

	snap := s.Snapshot()
	assert.Equal(t, types.SessionDisconnected, snap.State)
	assert.False(t, snap.Connected)

	// The rejection is retryable: a second attempt succeeds.
	bridge.requestAccounts = func(context.Context) ([]string, error) {
		return []string{testAccount}, nil
	}
	_, err = s.Connect(ctx)
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Connected)
}

func TestConnectWithNoAccountsIsRejected(t *testing.T) {
	bridge := newFakeBridge()
	bridge.requestAccounts = func(context.Context) ([]string, error) {
		return nil, nil
	}
	s := NewSession(bridge)

	_, err := s.Connect(context.Background())
	assert.ErrorIs(t, err, types.ErrConnectionRejected)
	assert.Equal(t, types.SessionDisconnected, s.Snapshot().State)
}

func TestConnectWithoutBridge(t *testing.T) {
	s := NewSession(nil)
	_, err := s.Connect(context.Background())
	assert.ErrorIs(t, err, types.ErrWalletUnavailable)
}

func TestConnectStaysConnectedWhenNetworkIsWrong(t *testing.T) {
	bridge := newFakeBridge()
	bridge.chainID = func(context.Context) (string, error) {
		return "0x1", nil
	}
	bridge.switchChain = func(context.Context, string) error {
		return &BridgeError{Code: CodeUserRejected, Message: "User rejected the request."}
	}
	s := NewSession(bridge)

	account, err := s.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testAccount, account.Hex())

	snap := s.Snapshot()
	assert.Equal(t, types.SessionConnectedNonCompliant, snap.State)
	assert.True(t, snap.Connected)
	assert.False(t, snap.NetworkCompliant)
}

func TestVerifyNetworkSwitchesChain(t *testing.T) {
	bridge := newFakeBridge()
	current := "0x1"
	bridge.chainID = func(context.Context) (string, error) {
		return current, nil
	}
	bridge.switchChain = func(_ context.Context, chainID string) error {
		current = chainID
		return nil
	}
	s := NewSession(bridge)

	_, err := s.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, bridge.switchCalls)
	assert.Equal(t, 0, bridge.addCalls)
	assert.Equal(t, types.SessionConnectedCompliant, s.Snapshot().State)
}

func TestVerifyNetworkAddsUnknownChain(t *testing.T) {
	bridge := newFakeBridge()
	current := "0x1"
	bridge.chainID = func(context.Context) (string, error) {
		return current, nil
	}
	bridge.switchChain = func(context.Context, string) error {
		return &BridgeError{Code: CodeChainNotAdded, Message: "Unrecognized chain ID."}
	}
	bridge.addChain = func(_ context.Context, desc types.ChainDescriptor) error {
		current = desc.ChainID
		return nil
	}
	s := NewSession(bridge)

	_, err := s.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, bridge.addCalls)
	assert.Equal(t, types.SessionConnectedCompliant, s.Snapshot().State)
}

func TestVerifyNetworkAddChainFailure(t *testing.T) {
	bridge := newFakeBridge()
	bridge.chainID = func(context.Context) (string, error) {
		return "0x1", nil
	}
	bridge.switchChain = func(context.Context, string) error {
		return &BridgeError{Code: CodeChainNotAdded, Message: "Unrecognized chain ID."}
	}
	bridge.addChain = func(context.Context, types.ChainDescriptor) error {
		return &BridgeError{Code: CodeUserRejected, Message: "User rejected the request."}
	}
	s := NewSession(bridge)

	_, err := s.Connect(context.Background())
	require.NoError(t, err)

	err = s.VerifyNetwork(context.Background())
	assert.ErrorIs(t, err, types.ErrNetworkNonCompliant)
	assert.Equal(t, types.SessionConnectedNonCompliant, s.Snapshot().State)
}

func TestAccountsChangedReplacesAccount(t *testing.T) {
	s := NewSession(newFakeBridge())
	_, err := s.Connect(context.Background())
	require.NoError(t, err)

	s.HandleAccountsChanged([]string{otherTestAccount})

	snap := s.Snapshot()
	assert.True(t, snap.Connected)
	assert.Equal(t, otherTestAccount, snap.Account.Hex())
	assert.Equal(t, types.SessionConnectedCompliant, snap.State)
}

func TestAccountsChangedEmptyDisconnects(t *testing.T) {
	s := NewSession(newFakeBridge())
	_, err := s.Connect(context.Background())
	require.NoError(t, err)

	s.HandleAccountsChanged(nil)

	snap := s.Snapshot()
	assert.Equal(t, types.SessionDisconnected, snap.State)
	assert.False(t, snap.Connected)
	assert.True(t, snap.Account.IsZero())
}

func TestChainChangedTogglesCompliance(t *testing.T) {
	s := NewSession(newFakeBridge())
	_, err := s.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, types.SessionConnectedCompliant, s.Snapshot().State)

	s.HandleChainChanged("0x1")
	assert.Equal(t, types.SessionConnectedNonCompliant, s.Snapshot().State)

	s.HandleChainChanged(RequiredNetwork.ChainID)
	assert.Equal(t, types.SessionConnectedCompliant, s.Snapshot().State)
}

func TestChainChangedAcceptsDecimalForm(t *testing.T) {
	s := NewSession(newFakeBridge())
	_, err := s.Connect(context.Background())
	require.NoError(t, err)

	// 0x61 and 97 name the same chain.
	s.HandleChainChanged("97")
	assert.Equal(t, types.SessionConnectedCompliant, s.Snapshot().State)
}

func TestLastEventWinsDuringConnect(t *testing.T) {
	bridge := newFakeBridge()
	requested := make(chan struct{})
	release := make(chan struct{})
	bridge.requestAccounts = func(context.Context) ([]string, error) {
		close(requested)
		<-release
		return []string{testAccount}, nil
	}
	s := NewSession(bridge)

	done := make(chan error, 1)
	go func() {
		_, err := s.Connect(context.Background())
		done <- err
	}()

	// A disconnect event lands while the account request is still pending.
	<-requested
	s.HandleAccountsChanged(nil)
	close(release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, types.ErrConnectionRejected)
	case <-time.After(time.Second):
		t.Fatal("connect did not return")
	}

	// The event's outcome stands; the stale request result is discarded.
	assert.Equal(t, types.SessionDisconnected, s.Snapshot().State)
}

func TestWatchDispatchesBridgeEvents(t *testing.T) {
	bridge := newFakeBridge()
	s := NewSession(bridge)
	_, err := s.Connect(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Watch(ctx)

	bridge.events <- Event{Kind: EventChainChanged, ChainID: "0x1"}

	require.Eventually(t, func() bool {
		return s.Snapshot().State == types.SessionConnectedNonCompliant
	}, time.Second, 10*time.Millisecond)
}

func TestChangeHandlerObservesTransitions(t *testing.T) {
	var states []types.SessionState
	s := NewSession(newFakeBridge(), WithChangeHandler(func(snap types.SessionSnapshot) {
		states = append(states, snap.State)
	}))

	_, err := s.Connect(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, states)
	assert.Equal(t, types.SessionConnecting, states[0])
	assert.Equal(t, types.SessionConnectedCompliant, states[len(states)-1])
}
