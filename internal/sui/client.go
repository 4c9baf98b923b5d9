// Package sui is a thin JSON-RPC 2.0 client for the fullnode methods this
// application reads ledger state through and submits transactions with. It
// owns no retry or timeout policy of its own; callers bound each call with
// the context they pass in.
package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// waitPollInterval is how often WaitForTransaction re-asks the node whether
// a digest has been indexed.
const waitPollInterval = 500 * time.Millisecond

// Client talks to one fullnode endpoint.
type Client struct {
	url  string
	http *http.Client
}

// NewClient returns a client for the given fullnode RPC URL.
func NewClient(url string) *Client {
	return &Client{url: url, http: &http.Client{}}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return errors.Wrapf(err, "%s: encode request", method)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "%s: build request", method)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s: post", method)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "%s: read response", method)
	}
	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return errors.Wrapf(err, "%s: decode response", method)
	}
	if rpcResp.Error != nil {
		return errors.Errorf("%s: rpc error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return errors.Wrapf(err, "%s: decode result", method)
	}
	return nil
}

var objectOptions = map[string]bool{"showContent": true, "showOwner": true}

// GetObject reads one object by id. A nil ObjectData with a nil error means
// the id does not resolve to a live object.
func (c *Client) GetObject(ctx context.Context, id string) (*ObjectData, error) {
	var resp objectResponse
	if err := c.call(ctx, "sui_getObject", []any{id, objectOptions}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, nil
	}
	return resp.Data, nil
}

// MultiGetObjects batch-reads objects by id. The result is positional and
// entries for dead or unknown ids are nil. Ids must be unique.
func (c *Client) MultiGetObjects(ctx context.Context, ids []string) ([]*ObjectData, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var resps []objectResponse
	if err := c.call(ctx, "sui_multiGetObjects", []any{ids, objectOptions}, &resps); err != nil {
		return nil, err
	}
	out := make([]*ObjectData, len(resps))
	for i, r := range resps {
		if r.Error == nil {
			out[i] = r.Data
		}
	}
	return out, nil
}

// QueryEvents returns events of one move event type, most recent first.
func (c *Client) QueryEvents(ctx context.Context, eventType string) ([]Event, error) {
	query := map[string]string{"MoveEventType": eventType}
	var page eventPage
	// cursor nil, limit nil, descending_order true
	if err := c.call(ctx, "suix_queryEvents", []any{query, nil, nil, true}, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// GetCoins lists the gas coins owned by an address.
func (c *Client) GetCoins(ctx context.Context, owner string) ([]Coin, error) {
	var page coinPage
	if err := c.call(ctx, "suix_getCoins", []any{owner, nil, nil, nil}, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// GetReferenceGasPrice returns the current epoch's reference gas price.
func (c *Client) GetReferenceGasPrice(ctx context.Context) (uint64, error) {
	var price Uint64
	if err := c.call(ctx, "suix_getReferenceGasPrice", []any{}, &price); err != nil {
		return 0, err
	}
	return uint64(price), nil
}

// ExecuteTransactionBlock submits signed transaction bytes.
func (c *Client) ExecuteTransactionBlock(ctx context.Context, txBytesB64 string, signatures []string) (*TransactionBlockResponse, error) {
	params := []any{
		txBytesB64,
		signatures,
		map[string]bool{"showEffects": true},
		"WaitForLocalExecution",
	}
	var resp TransactionBlockResponse
	if err := c.call(ctx, "sui_executeTransactionBlock", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTransactionBlock reads an executed transaction with its effects.
func (c *Client) GetTransactionBlock(ctx context.Context, digest string) (*TransactionBlockResponse, error) {
	var resp TransactionBlockResponse
	if err := c.call(ctx, "sui_getTransactionBlock", []any{digest, map[string]bool{"showEffects": true}}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WaitForTransaction polls until the digest has been indexed by the node.
// Submission success does not make a transaction's effects queryable; this
// is the ordering step between submitting and reading what it created.
func (c *Client) WaitForTransaction(ctx context.Context, digest string) (*TransactionBlockResponse, error) {
	for {
		resp, err := c.GetTransactionBlock(ctx, digest)
		if err == nil && resp.Digest != "" {
			return resp, nil
		}
		select {
		case <-ctx.Done():
			if err == nil {
				err = errors.Errorf("transaction %s not indexed", digest)
			}
			return nil, errors.Wrap(err, "wait for transaction")
		case <-time.After(waitPollInterval):
		}
	}
}
