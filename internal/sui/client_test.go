package sui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode is a single-endpoint JSON-RPC server driven by a method table.
func fakeNode(t *testing.T, methods map[string]func(params []json.RawMessage) (any, *rpcError)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler, ok := methods[req.Method]
		if !ok {
			t.Errorf("unexpected rpc method %s", req.Method)
			http.Error(w, "unexpected method", http.StatusBadRequest)
			return
		}
		result, rpcErr := handler(req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": 1}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestGetObject(t *testing.T) {
	client := fakeNode(t, map[string]func([]json.RawMessage) (any, *rpcError){
		"sui_getObject": func(params []json.RawMessage) (any, *rpcError) {
			var id string
			require.NoError(t, json.Unmarshal(params[0], &id))
			assert.Equal(t, "0x123", id)
			return map[string]any{"data": map[string]any{
				"objectId": "0x123",
				"version":  "42",
				"digest":   "9zH...",
				"owner":    map[string]any{"Shared": map[string]any{"initial_shared_version": 7}},
				"content": map[string]any{
					"dataType": "moveObject",
					"type":     "0xp::lottery::Lottery",
					"fields":   map[string]any{"status": 0},
				},
			}}, nil
		},
	})

	obj, err := client.GetObject(context.Background(), "0x123")
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, "0x123", obj.ObjectID)
	assert.Equal(t, Uint64(42), obj.Version)
	require.NotNil(t, obj.Owner)
	require.NotNil(t, obj.Owner.Shared)
	assert.Equal(t, Uint64(7), obj.Owner.Shared.InitialSharedVersion)
	assert.Equal(t, "moveObject", obj.Content.DataType)
}

func TestGetObjectNotFound(t *testing.T) {
	client := fakeNode(t, map[string]func([]json.RawMessage) (any, *rpcError){
		"sui_getObject": func([]json.RawMessage) (any, *rpcError) {
			return map[string]any{"error": map[string]any{"code": "notExists"}}, nil
		},
	})
	obj, err := client.GetObject(context.Background(), "0xdead")
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestMultiGetObjectsPositional(t *testing.T) {
	client := fakeNode(t, map[string]func([]json.RawMessage) (any, *rpcError){
		"sui_multiGetObjects": func(params []json.RawMessage) (any, *rpcError) {
			var ids []string
			require.NoError(t, json.Unmarshal(params[0], &ids))
			assert.Equal(t, []string{"0x1", "0x2"}, ids)
			return []any{
				map[string]any{"data": map[string]any{"objectId": "0x1", "version": "1", "digest": "d"}},
				map[string]any{"error": map[string]any{"code": "deleted"}},
			}, nil
		},
	})
	objs, err := client.MultiGetObjects(context.Background(), []string{"0x1", "0x2"})
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "0x1", objs[0].ObjectID)
	assert.Nil(t, objs[1])
}

func TestQueryEventsDescending(t *testing.T) {
	client := fakeNode(t, map[string]func([]json.RawMessage) (any, *rpcError){
		"suix_queryEvents": func(params []json.RawMessage) (any, *rpcError) {
			var query map[string]string
			require.NoError(t, json.Unmarshal(params[0], &query))
			assert.Equal(t, "0xp::lottery::LotteryCreatedEvent", query["MoveEventType"])
			var descending bool
			require.NoError(t, json.Unmarshal(params[3], &descending))
			assert.True(t, descending, "event query must be most recent first")
			return map[string]any{"data": []any{
				map[string]any{"parsedJson": map[string]any{"lottery_id": "0x1"}},
			}}, nil
		},
	})
	events, err := client.QueryEvents(context.Background(), "0xp::lottery::LotteryCreatedEvent")
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestRPCErrorSurfaced(t *testing.T) {
	client := fakeNode(t, map[string]func([]json.RawMessage) (any, *rpcError){
		"sui_executeTransactionBlock": func([]json.RawMessage) (any, *rpcError) {
			return nil, &rpcError{Code: -32002, Message: "InsufficientGas"}
		},
	})
	_, err := client.ExecuteTransactionBlock(context.Background(), "AAAA", []string{"sig"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InsufficientGas")
}

func TestWaitForTransactionPolls(t *testing.T) {
	var calls atomic.Int32
	client := fakeNode(t, map[string]func([]json.RawMessage) (any, *rpcError){
		"sui_getTransactionBlock": func([]json.RawMessage) (any, *rpcError) {
			if calls.Add(1) < 3 {
				return nil, &rpcError{Code: -32602, Message: "Could not find the referenced transaction"}
			}
			return map[string]any{"digest": "D1"}, nil
		},
	})
	resp, err := client.WaitForTransaction(context.Background(), "D1")
	require.NoError(t, err)
	assert.Equal(t, "D1", resp.Digest)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWaitForTransactionContextBound(t *testing.T) {
	client := fakeNode(t, map[string]func([]json.RawMessage) (any, *rpcError){
		"sui_getTransactionBlock": func([]json.RawMessage) (any, *rpcError) {
			return nil, &rpcError{Code: -32602, Message: "Could not find the referenced transaction"}
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.WaitForTransaction(ctx, "D1")
	require.Error(t, err)
}

func TestOwnerUnmarshal(t *testing.T) {
	var immutable Owner
	require.NoError(t, json.Unmarshal([]byte(`"Immutable"`), &immutable))
	assert.True(t, immutable.Immutable)

	var addr Owner
	require.NoError(t, json.Unmarshal([]byte(`{"AddressOwner":"0xaa"}`), &addr))
	assert.Equal(t, "0xaa", addr.AddressOwner)
	assert.Nil(t, addr.Shared)

	var shared Owner
	require.NoError(t, json.Unmarshal([]byte(`{"Shared":{"initial_shared_version":"33"}}`), &shared))
	require.NotNil(t, shared.Shared)
	assert.Equal(t, Uint64(33), shared.Shared.InitialSharedVersion)

	var unknown Owner
	require.Error(t, json.Unmarshal([]byte(`"Whatever"`), &unknown))
}
