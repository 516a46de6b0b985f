package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenquest/sdk-go/core/types"
)

// walletServer is a scripted JSON-RPC wallet provider behind a websocket.
type walletServer struct {
	t       *testing.T
	upgrade websocket.Upgrader
	handle  func(method string, params json.RawMessage) (any, *rpcError)

	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *walletServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrade.Upgrade(w, r, nil)
	require.NoError(s.t, err)
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	for {
		var req rpcRequest
		var raw struct {
			ID     uint64          `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := conn.ReadJSON(&raw); err != nil {
			return
		}
		req.ID, req.Method = raw.ID, raw.Method

		result, rpcErr := s.handle(req.Method, raw.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

// notify pushes a provider notification frame to the connected bridge.
func (s *walletServer) notify(method string, params any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotNil(s.t, s.conn)
	require.NoError(s.t, s.conn.WriteJSON(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}))
}

func dialTestBridge(t *testing.T, handle func(method string, params json.RawMessage) (any, *rpcError)) (*WSBridge, *walletServer) {
	t.Helper()
	ws := &walletServer{t: t, handle: handle}
	srv := httptest.NewServer(ws)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	bridge, err := DialBridge(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { bridge.Close() })
	return bridge, ws
}

func TestWSBridgeRequestAccounts(t *testing.T) {
	bridge, _ := dialTestBridge(t, func(method string, _ json.RawMessage) (any, *rpcError) {
		require.Equal(t, "eth_requestAccounts", method)
		return []string{testAccount}, nil
	})

	accounts, err := bridge.RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{testAccount}, accounts)
}

func TestWSBridgeProviderError(t *testing.T) {
	bridge, _ := dialTestBridge(t, func(string, json.RawMessage) (any, *rpcError) {
		return nil, &rpcError{Code: CodeUserRejected, Message: "User rejected the request."}
	})

	_, err := bridge.RequestAccounts(context.Background())
	require.Error(t, err)
	assert.True(t, IsUserRejected(err))
}

func TestWSBridgeChainNotAdded(t *testing.T) {
	bridge, _ := dialTestBridge(t, func(method string, _ json.RawMessage) (any, *rpcError) {
		if method == "wallet_switchEthereumChain" {
			return nil, &rpcError{Code: CodeChainNotAdded, Message: "Unrecognized chain ID."}
		}
		return nil, nil
	})

	err := bridge.SwitchChain(context.Background(), "0x61")
	require.Error(t, err)
	assert.True(t, IsChainNotAdded(err))
}

func TestWSBridgeAddChainSendsDescriptor(t *testing.T) {
	bridge, _ := dialTestBridge(t, func(method string, params json.RawMessage) (any, *rpcError) {
		require.Equal(t, "wallet_addEthereumChain", method)
		var got []addChainParams
		require.NoError(t, json.Unmarshal(params, &got))
		require.Len(t, got, 1)
		assert.Equal(t, "0x61", got[0].ChainID)
		assert.Equal(t, "BSC Testnet", got[0].ChainName)
		assert.Equal(t, "tBNB", got[0].NativeCurrency.Symbol)
		return nil, nil
	})

	require.NoError(t, bridge.AddChain(context.Background(), RequiredNetwork))
}

func TestWSBridgeNotifications(t *testing.T) {
	bridge, ws := dialTestBridge(t, func(string, json.RawMessage) (any, *rpcError) {
		return "0x61", nil
	})

	// A round trip first, so the server has the connection registered.
	_, err := bridge.ChainID(context.Background())
	require.NoError(t, err)

	ws.notify("accountsChanged", []string{otherTestAccount})
	ws.notify("chainChanged", "0x1")

	var events []Event
	for len(events) < 2 {
		select {
		case ev := <-bridge.Events():
			events = append(events, ev)
		case <-time.After(time.Second):
			t.Fatal("notifications not delivered")
		}
	}
	assert.Equal(t, EventAccountsChanged, events[0].Kind)
	assert.Equal(t, []string{otherTestAccount}, events[0].Accounts)
	assert.Equal(t, EventChainChanged, events[1].Kind)
	assert.Equal(t, "0x1", events[1].ChainID)
}

func TestWSBridgeCallAfterClose(t *testing.T) {
	bridge, _ := dialTestBridge(t, func(string, json.RawMessage) (any, *rpcError) {
		return "0x61", nil
	})
	require.NoError(t, bridge.Close())

	_, err := bridge.ChainID(context.Background())
	assert.ErrorIs(t, err, types.ErrWalletUnavailable)
}
