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
	"context"
	"net/http/httptest"
	"testing"

	libcommon "github.com/ledgerwatch/erigon-lib/common"
	"github.com/stretchr/testify/require"

	"github.com/cryptohub-digital/foundry/core/state"
)

// End-to-end wiring: a registry resolving through Endpoints against a live
// JSON-RPC test server.
func TestRegistryOverJSONRPC(t *testing.T) {
	ctx := context.Background()
	h := &rpcHandler{results: map[string]interface{}{
		"eth_getBlockByNumber": map[string]interface{}{"number": "0x64"},
		"eth_getStorageAt":     "0x2a",
	}}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	endpoints := NewEndpoints(map[string]string{"mainnet": srv.URL}, discardLogger())
	reg := state.NewRegistry(endpoints, discardLogger())

	_, err := reg.CreateSelectFork(ctx, "mainnet", 100)
	require.NoError(t, err)

	f, err := reg.ActiveFork()
	require.NoError(t, err)
	got, err := f.GetState(ctx, libcommon.HexToAddress("0xaa"), libcommon.HexToHash("0x01"))
	require.NoError(t, err)
	require.Equal(t, uint64(42), got.Uint64())

	// Reads hit the client cache, then the fork overlay: one storage fetch.
	_, err = f.GetState(ctx, libcommon.HexToAddress("0xaa"), libcommon.HexToHash("0x01"))
	require.NoError(t, err)
	require.Equal(t, 2, h.count()) // one block lookup + one storage fetch
}
