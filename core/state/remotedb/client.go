// Copyright 2026 The Foundry Authors
// This file is part of Foundry.
//
// Foundry is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Foundry is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Foundry. If not, see <http://www.gnu.org/licenses/>.

package remotedb

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	libcommon "github.com/ledgerwatch/erigon-lib/common"
	"github.com/ledgerwatch/log/v3"

	"github.com/cryptohub-digital/foundry/core/state"
)

// Historical (address, height) state is immutable, so fetched values are
// cached without expiry. The cache bounds memory for long fuzzing sessions.
const defaultCacheSize = 32 * 1024

const (
	defaultMaxRetries   = 3
	defaultRetryBackOff = 200 * time.Millisecond
	defaultHTTPTimeout  = 30 * time.Second
)

// Client is a JSON-RPC state source for one endpoint. It satisfies
// state.RemoteSource with per-key caching and bounded retry: transient
// transport failures are retried a fixed number of times, after which the
// failure surfaces wrapped in state.ErrRemoteUnavailable. It is never
// silently resolved to a zero value.
type Client struct {
	alias  string
	url    string
	client *http.Client
	logger log.Logger

	maxRetries   uint64
	retryBackOff time.Duration

	cache  *lru.Cache[string, string]
	nextID atomic.Uint64
}

var _ state.RemoteSource = (*Client)(nil)

// NewClient creates a client for the endpoint at url, known to the harness
// under alias.
func NewClient(alias, url string, logger log.Logger) (*Client, error) {
	cache, err := lru.New[string, string](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		alias:        alias,
		url:          url,
		client:       &http.Client{Timeout: defaultHTTPTimeout},
		logger:       logger,
		maxRetries:   defaultMaxRetries,
		retryBackOff: defaultRetryBackOff,
		cache:        cache,
	}, nil
}

func (c *Client) Alias() string { return c.alias }

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC request with bounded retry. A JSON-RPC error
// object is a permanent failure (the endpoint answered); transport and HTTP
// 5xx failures are retried.
func (c *Client) call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method, Params: params})
	if err != nil {
		return nil, err
	}

	result, err := backoff.RetryWithData(func() (json.RawMessage, error) {
		fetchesTotal.WithLabelValues(method).Inc()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			retriesTotal.Inc()
			c.logger.Debug("remote state fetch failed, retrying", "endpoint", c.alias, "method", method, "err", err)
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			retriesTotal.Inc()
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			retriesTotal.Inc()
			c.logger.Debug("remote state fetch failed, retrying", "endpoint", c.alias, "method", method, "status", resp.StatusCode)
			return nil, fmt.Errorf("http status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(fmt.Errorf("http status %d", resp.StatusCode))
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(body, &rpcResp); err != nil {
			return nil, backoff.Permanent(err)
		}
		if rpcResp.Error != nil {
			return nil, backoff.Permanent(fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message))
		}
		return rpcResp.Result, nil
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryBackOff), c.maxRetries))
	if err != nil {
		fetchErrorsTotal.WithLabelValues(method).Inc()
		return nil, fmt.Errorf("%s on %q: %v: %w", method, c.alias, err, state.ErrRemoteUnavailable)
	}
	return result, nil
}

// cachedCall routes a call through the immutable fetch cache. Keys bind
// (method, height, args); the alias is implicit since caches are per client.
func (c *Client) cachedCall(ctx context.Context, key, method string, params ...interface{}) (string, error) {
	if res, ok := c.cache.Get(key); ok {
		cacheHitsTotal.Inc()
		return res, nil
	}
	raw, err := c.call(ctx, method, params...)
	if err != nil {
		return "", err
	}
	var res string
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("%s on %q: malformed result: %v: %w", method, c.alias, err, state.ErrRemoteUnavailable)
	}
	c.cache.Add(key, res)
	return res, nil
}

func heightArg(height uint64) string {
	return "0x" + strconv.FormatUint(height, 16)
}

// BalanceAt implements state.RemoteSource.
func (c *Client) BalanceAt(ctx context.Context, addr libcommon.Address, height uint64) (uint256.Int, error) {
	key := fmt.Sprintf("balance/%d/%x", height, addr)
	res, err := c.cachedCall(ctx, key, "eth_getBalance", addr.Hex(), heightArg(height))
	if err != nil {
		return uint256.Int{}, err
	}
	v, err := uint256.FromHex(res)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("eth_getBalance on %q: malformed quantity %q: %w", c.alias, res, state.ErrRemoteUnavailable)
	}
	return *v, nil
}

// NonceAt implements state.RemoteSource.
func (c *Client) NonceAt(ctx context.Context, addr libcommon.Address, height uint64) (uint64, error) {
	key := fmt.Sprintf("nonce/%d/%x", height, addr)
	res, err := c.cachedCall(ctx, key, "eth_getTransactionCount", addr.Hex(), heightArg(height))
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(res, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("eth_getTransactionCount on %q: malformed quantity %q: %w", c.alias, res, state.ErrRemoteUnavailable)
	}
	return n, nil
}

// CodeAt implements state.RemoteSource.
func (c *Client) CodeAt(ctx context.Context, addr libcommon.Address, height uint64) ([]byte, error) {
	key := fmt.Sprintf("code/%d/%x", height, addr)
	res, err := c.cachedCall(ctx, key, "eth_getCode", addr.Hex(), heightArg(height))
	if err != nil {
		return nil, err
	}
	code, err := hex.DecodeString(strings.TrimPrefix(res, "0x"))
	if err != nil {
		return nil, fmt.Errorf("eth_getCode on %q: malformed bytes: %w", c.alias, state.ErrRemoteUnavailable)
	}
	return code, nil
}

// StorageAt implements state.RemoteSource.
func (c *Client) StorageAt(ctx context.Context, addr libcommon.Address, slot libcommon.Hash, height uint64) (uint256.Int, error) {
	key := fmt.Sprintf("storage/%d/%x/%x", height, addr, slot)
	res, err := c.cachedCall(ctx, key, "eth_getStorageAt", addr.Hex(), slot.Hex(), heightArg(height))
	if err != nil {
		return uint256.Int{}, err
	}
	var v uint256.Int
	v.SetBytes(libcommon.HexToHash(res).Bytes())
	return v, nil
}

// LatestHeight implements state.RemoteSource. The head moves, so it is never
// cached; callers freeze the observed value per fork.
func (c *Client) LatestHeight(ctx context.Context) (uint64, error) {
	raw, err := c.call(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	var res string
	if err := json.Unmarshal(raw, &res); err != nil {
		return 0, fmt.Errorf("eth_blockNumber on %q: malformed result: %w", c.alias, state.ErrRemoteUnavailable)
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(res, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber on %q: malformed quantity %q: %w", c.alias, res, state.ErrRemoteUnavailable)
	}
	return n, nil
}

// HeightExists implements state.RemoteSource. A null block means the
// endpoint cannot serve the height.
func (c *Client) HeightExists(ctx context.Context, height uint64) (bool, error) {
	key := fmt.Sprintf("block/%d", height)
	if _, ok := c.cache.Get(key); ok {
		cacheHitsTotal.Inc()
		return true, nil
	}
	raw, err := c.call(ctx, "eth_getBlockByNumber", heightArg(height), false)
	if err != nil {
		return false, err
	}
	if string(bytes.TrimSpace(raw)) == "null" {
		return false, nil
	}
	// Only existence is cached: a height once served stays servable.
	c.cache.Add(key, "1")
	return true, nil
}
