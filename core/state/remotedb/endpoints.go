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
	"fmt"
	"os"
	"sort"

	"github.com/ledgerwatch/log/v3"
	"github.com/pelletier/go-toml/v2"

	"github.com/cryptohub-digital/foundry/core/state"
)

// ErrUnknownEndpoint is returned when an alias has no configured URL.
type ErrUnknownEndpoint struct {
	Alias string
}

func (e ErrUnknownEndpoint) Error() string {
	return fmt.Sprintf("no rpc endpoint configured for alias %q", e.Alias)
}

// endpointsFile mirrors the harness configuration file: a single
// [rpc_endpoints] table mapping aliases to URLs.
type endpointsFile struct {
	RPCEndpoints map[string]string `toml:"rpc_endpoints"`
}

// Endpoints resolves endpoint aliases to remote state sources, memoizing one
// client per alias so all forks on the same endpoint share its fetch cache.
type Endpoints struct {
	urls    map[string]string
	clients map[string]*Client
	logger  log.Logger
}

var _ state.SourceResolver = (*Endpoints)(nil)

// NewEndpoints creates a resolver over an alias -> URL mapping.
func NewEndpoints(urls map[string]string, logger log.Logger) *Endpoints {
	cp := make(map[string]string, len(urls))
	for alias, url := range urls {
		cp[alias] = url
	}
	return &Endpoints{
		urls:    cp,
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// LoadEndpoints reads the TOML endpoints file at path.
func LoadEndpoints(path string, logger log.Logger) (*Endpoints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading endpoints file: %w", err)
	}
	var file endpointsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing endpoints file %s: %w", path, err)
	}
	return NewEndpoints(file.RPCEndpoints, logger), nil
}

// Source implements state.SourceResolver.
func (e *Endpoints) Source(alias string) (state.RemoteSource, error) {
	c, err := e.Client(alias)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Client returns the memoized client for alias.
func (e *Endpoints) Client(alias string) (*Client, error) {
	if c, ok := e.clients[alias]; ok {
		return c, nil
	}
	url, ok := e.urls[alias]
	if !ok {
		return nil, ErrUnknownEndpoint{Alias: alias}
	}
	c, err := NewClient(alias, url, e.logger)
	if err != nil {
		return nil, err
	}
	e.clients[alias] = c
	return c, nil
}

// Aliases returns the configured aliases, sorted.
func (e *Endpoints) Aliases() []string {
	out := make([]string, 0, len(e.urls))
	for alias := range e.urls {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}
