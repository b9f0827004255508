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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const endpointsTOML = `
[rpc_endpoints]
mainnet = "https://eth.example.com"
optimism = "https://op.example.com"
`

func TestLoadEndpoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "endpoints.toml")
	require.NoError(t, os.WriteFile(path, []byte(endpointsTOML), 0o644))

	endpoints, err := LoadEndpoints(path, discardLogger())
	require.NoError(t, err)
	require.Equal(t, []string{"mainnet", "optimism"}, endpoints.Aliases())
}

func TestLoadEndpointsMissingFile(t *testing.T) {
	_, err := LoadEndpoints(filepath.Join(t.TempDir(), "nope.toml"), discardLogger())
	require.Error(t, err)
}

func TestLoadEndpointsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "endpoints.toml")
	require.NoError(t, os.WriteFile(path, []byte("rpc_endpoints = 7"), 0o644))
	_, err := LoadEndpoints(path, discardLogger())
	require.Error(t, err)
}

func TestUnknownAlias(t *testing.T) {
	endpoints := NewEndpoints(map[string]string{"mainnet": "https://eth.example.com"}, discardLogger())
	_, err := endpoints.Source("nosuch")
	var unknown ErrUnknownEndpoint
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "nosuch", unknown.Alias)
}

func TestClientsAreMemoized(t *testing.T) {
	endpoints := NewEndpoints(map[string]string{"mainnet": "https://eth.example.com"}, discardLogger())

	a, err := endpoints.Client("mainnet")
	require.NoError(t, err)
	b, err := endpoints.Client("mainnet")
	require.NoError(t, err)
	// Forks on the same endpoint share one client and its fetch cache.
	require.Same(t, a, b)
}
