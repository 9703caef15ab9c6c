// oracle/solana_rpc.go
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"

	"holder-contest-system/utils"
)

// SolanaRPC talks JSON-RPC 2.0 to a Solana node.
type SolanaRPC struct {
	URL        string
	HTTPClient *http.Client

	nextID atomic.Int64
}

func NewSolanaRPC(url string, client *http.Client) *SolanaRPC {
	if client == nil {
		client = utils.NewHTTPClient(0)
	}
	return &SolanaRPC{URL: url, HTTPClient: client}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *SolanaRPC) call(ctx context.Context, method string, params []any, out any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer func() { _ = utils.DrainAndClose(resp.Body) }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s returned status %d: %s", method, resp.StatusCode, string(body))
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if decoded.Error != nil {
		return decoded.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

type tokenAccountsResult struct {
	Value []struct {
		Account struct {
			Data json.RawMessage `json:"data"`
		} `json:"account"`
	} `json:"value"`
}

type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			TokenAmount struct {
				Amount string `json:"amount"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

// Balance sums the raw amount of mint across every token account owned by wallet.
// Accounts whose data cannot be parsed are skipped.
func (c *SolanaRPC) Balance(ctx context.Context, wallet, mint string) (*big.Int, error) {
	var result tokenAccountsResult
	err := c.call(ctx, "getTokenAccountsByOwner", []any{
		wallet,
		map[string]string{"mint": mint},
		map[string]string{"encoding": "jsonParsed"},
	}, &result)
	if err != nil {
		return nil, err
	}

	total := new(big.Int)
	for _, acc := range result.Value {
		var parsed parsedTokenAccount
		if err := json.Unmarshal(acc.Account.Data, &parsed); err != nil {
			continue
		}
		amount, ok := new(big.Int).SetString(parsed.Parsed.Info.TokenAmount.Amount, 10)
		if !ok || amount.Sign() < 0 {
			continue
		}
		total.Add(total, amount)
	}
	return total, nil
}

// Decimals reads the mint's decimals from getTokenSupply. Any failure is ErrUnavailable.
func (c *SolanaRPC) Decimals(ctx context.Context, mint string) (int32, error) {
	var result struct {
		Value struct {
			Decimals *int32 `json:"decimals"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getTokenSupply", []any{mint}, &result); err != nil {
		return 0, fmt.Errorf("%w: decimals: %v", ErrUnavailable, err)
	}
	if result.Value.Decimals == nil || *result.Value.Decimals < 0 {
		return 0, fmt.Errorf("%w: decimals missing for %s", ErrUnavailable, mint)
	}
	return *result.Value.Decimals, nil
}
