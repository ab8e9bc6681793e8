// Package ledgerrpc implements the read side of the ledger over its JSON-RPC
// HTTP interface.
package ledgerrpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/superstream/sdk-go/core/types"
	"github.com/superstream/sdk-go/core/util"
)

const defaultRequestTimeout = 30 * time.Second

// Client speaks the ledger's JSON-RPC protocol. It implements
// types.LedgerQuery scoped to one program's accounts.
type Client struct {
	endpoint  string
	programID util.Address
	http      *http.Client
}

var _ types.LedgerQuery = (*Client)(nil)

// NewClient builds a ledger client for the given RPC endpoint, scoped to the
// accounts owned by programID.
func NewClient(endpoint string, programID util.Address) *Client {
	return &Client{
		endpoint:  endpoint,
		programID: programID,
		http:      &http.Client{Timeout: defaultRequestTimeout},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s request failed", method)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithStack(err)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("%s request failed with status %d: %s", method, resp.StatusCode, raw)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return errors.Wrapf(err, "invalid %s response", method)
	}
	if rpcResp.Error != nil {
		return errors.Errorf("%s failed: %s (code %d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return errors.Wrapf(err, "invalid %s result", method)
		}
	}
	return nil
}

// accountInfo is the RPC representation of an account's contents. Data is a
// [payload, encoding] pair.
type accountInfo struct {
	Data []string `json:"data"`
}

func (a *accountInfo) decode() ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	if len(a.Data) != 2 || a.Data[1] != "base64" {
		return nil, errors.New("account data is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(a.Data[0])
	if err != nil {
		return nil, errors.Wrap(err, "invalid account data")
	}
	return data, nil
}

var base64Encoding = map[string]string{"encoding": "base64"}

func (c *Client) GetAccount(ctx context.Context, address util.Address) ([]byte, error) {
	var result struct {
		Value *accountInfo `json:"value"`
	}
	err := c.call(ctx, "getAccountInfo", []any{address.String(), base64Encoding}, &result)
	if err != nil {
		return nil, err
	}
	return result.Value.decode()
}

func (c *Client) GetMultipleAccounts(ctx context.Context, addresses []util.Address) ([][]byte, error) {
	encoded := make([]string, len(addresses))
	for i, address := range addresses {
		encoded[i] = address.String()
	}

	var result struct {
		Value []*accountInfo `json:"value"`
	}
	err := c.call(ctx, "getMultipleAccounts", []any{encoded, base64Encoding}, &result)
	if err != nil {
		return nil, err
	}
	if len(result.Value) != len(addresses) {
		return nil, errors.Errorf("got %d accounts for %d addresses", len(result.Value), len(addresses))
	}

	batch := make([][]byte, len(addresses))
	for i, info := range result.Value {
		data, err := info.decode()
		if err != nil {
			return nil, errors.Wrapf(err, "account %s", addresses[i])
		}
		batch[i] = data
	}
	return batch, nil
}

func memcmpParams(filters []types.MemcmpFilter) []any {
	out := make([]any, len(filters))
	for i, f := range filters {
		out[i] = map[string]any{
			"memcmp": map[string]any{
				"offset": f.Offset,
				"bytes":  base58.Encode(f.Bytes),
			},
		}
	}
	return out
}

type programAccount struct {
	Pubkey  string       `json:"pubkey"`
	Account *accountInfo `json:"account"`
}

func (c *Client) getProgramAccounts(ctx context.Context, filters []types.MemcmpFilter, addressesOnly bool) ([]util.Address, [][]byte, error) {
	config := map[string]any{"encoding": "base64"}
	if len(filters) > 0 {
		config["filters"] = memcmpParams(filters)
	}
	if addressesOnly {
		// An empty data slice keeps the response down to the addresses.
		config["dataSlice"] = map[string]any{"offset": 0, "length": 0}
	}

	var result []programAccount
	err := c.call(ctx, "getProgramAccounts", []any{c.programID.String(), config}, &result)
	if err != nil {
		return nil, nil, err
	}

	addresses := make([]util.Address, len(result))
	var batch [][]byte
	if !addressesOnly {
		batch = make([][]byte, len(result))
	}
	for i, entry := range result {
		address, err := util.NewAddressFromBase58(entry.Pubkey)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "invalid account address %q", entry.Pubkey)
		}
		addresses[i] = address

		if !addressesOnly {
			data, err := entry.Account.decode()
			if err != nil {
				return nil, nil, errors.Wrapf(err, "account %s", address)
			}
			batch[i] = data
		}
	}
	return addresses, batch, nil
}

func (c *Client) GetProgramAccounts(ctx context.Context, filters []types.MemcmpFilter) ([]util.Address, [][]byte, error) {
	return c.getProgramAccounts(ctx, filters, false)
}

func (c *Client) GetProgramAccountAddresses(ctx context.Context, filters []types.MemcmpFilter) ([]util.Address, error) {
	addresses, _, err := c.getProgramAccounts(ctx, filters, true)
	return addresses, err
}

// CurrentTime reports the timestamp of the ledger's most recent block.
func (c *Client) CurrentTime(ctx context.Context) (uint64, error) {
	var slot uint64
	if err := c.call(ctx, "getSlot", nil, &slot); err != nil {
		return 0, err
	}

	var blockTime int64
	if err := c.call(ctx, "getBlockTime", []any{slot}, &blockTime); err != nil {
		return 0, err
	}
	if blockTime < 0 {
		return 0, errors.Errorf("ledger reported a negative block time %d", blockTime)
	}
	return uint64(blockTime), nil
}
