package wallet

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tokenquest/sdk-go/core/logging"
	"github.com/tokenquest/sdk-go/core/types"
)

// WSBridge talks to a wallet provider over a websocket carrying JSON-RPC 2.0
// frames: requests flow out, responses and provider-pushed event
// notifications (accountsChanged, chainChanged) flow back in.
type WSBridge struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan rpcEnvelope

	events    chan Event
	nextID    atomic.Uint64
	closed    chan struct{}
	closeOnce sync.Once
}

var _ Bridge = (*WSBridge)(nil)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// EIP-3085 chain registration payload.
type addChainParams struct {
	ChainID           string               `json:"chainId"`
	ChainName         string               `json:"chainName"`
	RPCURLs           []string             `json:"rpcUrls"`
	BlockExplorerURLs []string             `json:"blockExplorerUrls,omitempty"`
	NativeCurrency    types.NativeCurrency `json:"nativeCurrency"`
}

// DialBridge connects to the wallet provider endpoint.
func DialBridge(ctx context.Context, url string) (*WSBridge, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(types.ErrWalletUnavailable, "dialing wallet bridge %s: %v", url, err)
	}
	b := &WSBridge{
		conn:    conn,
		pending: make(map[uint64]chan rpcEnvelope),
		events:  make(chan Event, 16),
		closed:  make(chan struct{}),
	}
	go b.readLoop()
	return b, nil
}

func (b *WSBridge) readLoop() {
	defer func() {
		b.Close()
		close(b.events)
	}()
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			return
		}
		var env rpcEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			logging.Logger.Warn("wallet bridge sent malformed frame", zap.Error(err))
			continue
		}
		if env.ID != nil {
			b.deliver(*env.ID, env)
			continue
		}
		b.handleNotification(env)
	}
}

func (b *WSBridge) deliver(id uint64, env rpcEnvelope) {
	b.mu.Lock()
	ch, ok := b.pending[id]
	delete(b.pending, id)
	b.mu.Unlock()
	if ok {
		ch <- env
	}
}

func (b *WSBridge) handleNotification(env rpcEnvelope) {
	var ev Event
	switch EventKind(env.Method) {
	case EventAccountsChanged:
		var accounts []string
		if err := json.Unmarshal(env.Params, &accounts); err != nil {
			logging.Logger.Warn("malformed accountsChanged payload", zap.Error(err))
			return
		}
		ev = Event{Kind: EventAccountsChanged, Accounts: accounts}
	case EventChainChanged:
		var chainID string
		if err := json.Unmarshal(env.Params, &chainID); err != nil {
			logging.Logger.Warn("malformed chainChanged payload", zap.Error(err))
			return
		}
		ev = Event{Kind: EventChainChanged, ChainID: chainID}
	default:
		return
	}
	select {
	case b.events <- ev:
	default:
		// The consumer stalled; dropping beats blocking the read loop,
		// and last-event-wins semantics tolerate gaps.
		logging.Logger.Warn("dropping wallet event, consumer too slow",
			zap.String("kind", string(ev.Kind)))
	}
}

func (b *WSBridge) call(ctx context.Context, method string, params any, result any) error {
	id := b.nextID.Add(1)
	ch := make(chan rpcEnvelope, 1)

	b.mu.Lock()
	b.pending[id] = ch
	b.mu.Unlock()

	b.writeMu.Lock()
	err := b.conn.WriteJSON(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	b.writeMu.Unlock()
	if err != nil {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
		return errors.Wrapf(types.ErrWalletUnavailable, "sending %s: %v", method, err)
	}

	select {
	case <-ctx.Done():
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
		return errors.Wrapf(types.ErrWalletUnavailable, "%s: %v", method, ctx.Err())
	case <-b.closed:
		return errors.Wrapf(types.ErrWalletUnavailable, "%s: bridge closed", method)
	case env := <-ch:
		if env.Error != nil {
			return &BridgeError{Code: env.Error.Code, Message: env.Error.Message}
		}
		if result == nil {
			return nil
		}
		if err := json.Unmarshal(env.Result, result); err != nil {
			return errors.Wrapf(types.ErrWalletUnavailable, "decoding %s result: %v", method, err)
		}
		return nil
	}
}

func (b *WSBridge) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := b.call(ctx, "eth_requestAccounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (b *WSBridge) Accounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := b.call(ctx, "eth_accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (b *WSBridge) ChainID(ctx context.Context) (string, error) {
	var chainID string
	if err := b.call(ctx, "eth_chainId", nil, &chainID); err != nil {
		return "", err
	}
	return chainID, nil
}

func (b *WSBridge) SwitchChain(ctx context.Context, chainID string) error {
	params := []map[string]string{{"chainId": chainID}}
	return b.call(ctx, "wallet_switchEthereumChain", params, nil)
}

func (b *WSBridge) AddChain(ctx context.Context, desc types.ChainDescriptor) error {
	params := []addChainParams{{
		ChainID:           desc.ChainID,
		ChainName:         desc.Name,
		RPCURLs:           []string{desc.RPCURL},
		BlockExplorerURLs: []string{desc.ExplorerURL},
		NativeCurrency:    desc.NativeCurrency,
	}}
	return b.call(ctx, "wallet_addEthereumChain", params, nil)
}

func (b *WSBridge) Events() <-chan Event {
	return b.events
}

// Close shuts the bridge down. Pending calls fail with ErrWalletUnavailable
// and the event channel is closed.
func (b *WSBridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closed)
		err = b.conn.Close()
	})
	return err
}
