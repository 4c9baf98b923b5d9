package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suilotto/internal/models"
	"suilotto/internal/sui"
)

const testPackage = "0xb6"

// fakeNode serves a scripted fullnode over httptest.
func fakeNode(t *testing.T, handler func(method string, params []json.RawMessage) any) *sui.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		result := handler(req.Method, req.Params)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": 1, "result": result,
		}))
	}))
	t.Cleanup(srv.Close)
	return sui.NewClient(srv.URL)
}

func lotteryObject(id string, deadline int64, status int, participants ...string) map[string]any {
	if participants == nil {
		participants = []string{}
	}
	return map[string]any{"data": map[string]any{
		"objectId": id,
		"version":  "1",
		"digest":   "11111111111111111111111111111111",
		"content": map[string]any{
			"dataType": "moveObject",
			"type":     testPackage + "::lottery::Lottery",
			"fields": map[string]any{
				"ticket_price":  "500000000",
				"balance":       fmt.Sprintf("%d", uint64(len(participants))*500_000_000),
				"participants":  participants,
				"deadline":      fmt.Sprintf("%d", deadline),
				"status":        status,
				"winners":       []string{},
				"admin_fee_bps": 200,
			},
		},
	}}
}

func creationEvent(lotteryID string) map[string]any {
	return map[string]any{
		"id":         map[string]any{"txDigest": "D" + lotteryID, "eventSeq": "0"},
		"type":       testPackage + "::lottery::LotteryCreatedEvent",
		"parsedJson": map[string]any{"lottery_id": lotteryID},
	}
}

// listNode scripts the shared fetch-open-lotteries primitive: three created
// lotteries (one unexpired, one expired below quorum, one already drawn), a
// duplicate creation event and a junk event.
func listNode(t *testing.T) *sui.Client {
	now := time.Now().UnixMilli()
	return fakeNode(t, func(method string, params []json.RawMessage) any {
		switch method {
		case "suix_queryEvents":
			return map[string]any{"data": []any{
				creationEvent("0x01"),
				creationEvent("0x02"),
				creationEvent("0x01"), // duplicate
				map[string]any{"parsedJson": map[string]any{}}, // junk
				creationEvent("0x03"),
			}}
		case "sui_multiGetObjects":
			var ids []string
			require.NoError(t, json.Unmarshal(params[0], &ids))
			assert.Equal(t, []string{"0x01", "0x02", "0x03"}, ids, "ids must be deduplicated in event order")
			return []any{
				lotteryObject("0x01", now+3_600_000, 0, "0xaa", "0xbb"),
				lotteryObject("0x02", now-3_600_000, 0, "0xaa"),
				lotteryObject("0x03", now-3_600_000, 1, "0xaa", "0xbb"),
			}
		default:
			t.Errorf("unexpected method %s", method)
			return nil
		}
	})
}

func TestActiveLotteries(t *testing.T) {
	reader := NewStateReader(listNode(t), testPackage)
	active, err := reader.ActiveLotteries(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "0x01", active[0].ID)
}

func TestAdminLotteriesIncludeExpired(t *testing.T) {
	reader := NewStateReader(listNode(t), testPackage)
	all, err := reader.AdminLotteries(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2, "open lotteries only, drawn ones excluded")
	assert.Equal(t, "0x01", all[0].ID)
	assert.Equal(t, "0x02", all[1].ID)
}

func TestRefundableLotteries(t *testing.T) {
	reader := NewStateReader(listNode(t), testPackage)

	mine, err := reader.RefundableLotteries(context.Background(), "0xaa")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "0x02", mine[0].ID)

	theirs, err := reader.RefundableLotteries(context.Background(), "0xcc")
	require.NoError(t, err)
	assert.Empty(t, theirs, "refunds are per participant")
}

func TestNoCreationEvents(t *testing.T) {
	client := fakeNode(t, func(method string, _ []json.RawMessage) any {
		require.Equal(t, "suix_queryEvents", method, "no object fetch without ids")
		return map[string]any{"data": []any{}}
	})
	reader := NewStateReader(client, testPackage)
	active, err := reader.ActiveLotteries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestLotteryDetail(t *testing.T) {
	now := time.Now().UnixMilli()
	client := fakeNode(t, func(method string, _ []json.RawMessage) any {
		require.Equal(t, "sui_getObject", method)
		return lotteryObject("0x05", now+1000, 0, "0xaa", "0xaa", "0xaa")
	})
	reader := NewStateReader(client, testPackage)
	lot, err := reader.Lottery(context.Background(), "0x05")
	require.NoError(t, err)
	require.NotNil(t, lot)
	assert.Equal(t, 3, lot.Tickets())
	assert.Equal(t, 1, lot.UniquePlayers())
	assert.Equal(t, 1, models.WinnerTier(lot.Tickets()))
}

func TestLotteryDetailNotFound(t *testing.T) {
	t.Run("dead id", func(t *testing.T) {
		client := fakeNode(t, func(string, []json.RawMessage) any {
			return map[string]any{"error": map[string]any{"code": "notExists"}}
		})
		lot, err := NewStateReader(client, testPackage).Lottery(context.Background(), "0x05")
		require.NoError(t, err)
		assert.Nil(t, lot)
	})

	t.Run("not a move object", func(t *testing.T) {
		client := fakeNode(t, func(string, []json.RawMessage) any {
			return map[string]any{"data": map[string]any{
				"objectId": "0x05",
				"content":  map[string]any{"dataType": "package"},
			}}
		})
		lot, err := NewStateReader(client, testPackage).Lottery(context.Background(), "0x05")
		require.NoError(t, err)
		assert.Nil(t, lot, "wrong content shape is a not-found state, not an error")
	})

	t.Run("malformed fields", func(t *testing.T) {
		client := fakeNode(t, func(string, []json.RawMessage) any {
			return map[string]any{"data": map[string]any{
				"objectId": "0x05",
				"content": map[string]any{
					"dataType": "moveObject",
					"fields":   map[string]any{"ticket_price": "1"},
				},
			}}
		})
		lot, err := NewStateReader(client, testPackage).Lottery(context.Background(), "0x05")
		require.NoError(t, err)
		assert.Nil(t, lot)
	})
}
