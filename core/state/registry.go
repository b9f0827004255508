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

package state

import (
	"context"
	"fmt"

	libcommon "github.com/ledgerwatch/erigon-lib/common"
	"github.com/ledgerwatch/log/v3"
)

// Registry owns every fork and tracks which one is active. All harness
// commands that touch "current" state route through the active fork. The
// registry is the single mutator: the harness issues one command at a time.
type Registry struct {
	resolver SourceResolver
	logger   log.Logger

	forks   map[ForkID]*Fork
	order   []ForkID
	active  *Fork
	nextID  ForkID
	persist *persistentStore
}

// NewRegistry creates an empty registry. resolver may be nil, in which case
// only local forks (empty alias) can be created.
func NewRegistry(resolver SourceResolver, logger log.Logger) *Registry {
	return &Registry{
		resolver: resolver,
		logger:   logger,
		forks:    make(map[ForkID]*Fork),
		persist:  newPersistentStore(),
	}
}

// CreateFork allocates a new fork pinned at height against the endpoint
// alias. The active fork does not change. An empty alias creates a local
// fork with no remote snapshot behind it.
func (r *Registry) CreateFork(ctx context.Context, alias string, height uint64) (ForkID, error) {
	src, err := r.resolveSource(alias)
	if err != nil {
		return 0, err
	}
	if src != nil {
		ok, err := src.HeightExists(ctx, height)
		if err != nil {
			return 0, fmt.Errorf("validating height %d on %q: %w", height, alias, err)
		}
		if !ok {
			return 0, ErrInvalidHeight{Alias: alias, Height: height}
		}
	}
	return r.addFork(alias, height, src), nil
}

// CreateForkAtHead allocates a new fork pinned at the endpoint's current
// head. The observed height is frozen for the fork thereafter.
func (r *Registry) CreateForkAtHead(ctx context.Context, alias string) (ForkID, error) {
	src, err := r.resolveSource(alias)
	if err != nil {
		return 0, err
	}
	var height uint64
	if src != nil {
		height, err = src.LatestHeight(ctx)
		if err != nil {
			return 0, fmt.Errorf("resolving head of %q: %w", alias, err)
		}
	}
	return r.addFork(alias, height, src), nil
}

// CreateSelectFork creates a fork and immediately makes it active.
func (r *Registry) CreateSelectFork(ctx context.Context, alias string, height uint64) (ForkID, error) {
	id, err := r.CreateFork(ctx, alias, height)
	if err != nil {
		return 0, err
	}
	return id, r.SelectFork(id)
}

func (r *Registry) resolveSource(alias string) (RemoteSource, error) {
	if alias == "" {
		return nil, nil
	}
	if r.resolver == nil {
		return nil, fmt.Errorf("no endpoint resolver configured, cannot fork %q: %w", alias, ErrRemoteUnavailable)
	}
	return r.resolver.Source(alias)
}

func (r *Registry) addFork(alias string, height uint64, src RemoteSource) ForkID {
	id := r.nextID
	r.nextID++
	f := newFork(id, alias, height, src, r.persist)
	r.forks[id] = f
	r.order = append(r.order, id)
	r.logger.Debug("fork created", "handle", id, "endpoint", alias, "height", height)
	return id
}

// SelectFork makes the fork owning handle active. No state is copied: the
// previously active fork's overlay and journal are parked exactly as left
// and resumed verbatim on a later reselect.
func (r *Registry) SelectFork(handle ForkID) error {
	f, ok := r.forks[handle]
	if !ok {
		return ErrUnknownFork{Handle: handle}
	}
	r.active = f
	r.logger.Debug("fork selected", "handle", handle, "endpoint", f.alias, "height", f.height)
	return nil
}

// ActiveFork returns the currently active fork, or ErrNoActiveFork.
func (r *Registry) ActiveFork() (*Fork, error) {
	if r.active == nil {
		return nil, ErrNoActiveFork
	}
	return r.active, nil
}

// Fork returns the fork owning handle.
func (r *Registry) Fork(handle ForkID) (*Fork, error) {
	f, ok := r.forks[handle]
	if !ok {
		return nil, ErrUnknownFork{Handle: handle}
	}
	return f, nil
}

// Handles returns every issued handle in creation order.
func (r *Registry) Handles() []ForkID {
	out := make([]ForkID, len(r.order))
	copy(out, r.order)
	return out
}

// RollFork moves the active fork to a new height. Remote-read caches are
// invalidated so reads re-resolve; explicit writes survive. Height validation
// happens before any mutation, so a failure leaves the fork untouched.
func (r *Registry) RollFork(ctx context.Context, height uint64) error {
	f, err := r.ActiveFork()
	if err != nil {
		return err
	}
	return r.rollFork(ctx, f, height)
}

// RollForkTo rolls a specific fork, which need not be active.
func (r *Registry) RollForkTo(ctx context.Context, handle ForkID, height uint64) error {
	f, err := r.Fork(handle)
	if err != nil {
		return err
	}
	return r.rollFork(ctx, f, height)
}

func (r *Registry) rollFork(ctx context.Context, f *Fork, height uint64) error {
	if f.src != nil {
		ok, err := f.src.HeightExists(ctx, height)
		if err != nil {
			return fmt.Errorf("validating height %d on %q: %w", height, f.alias, err)
		}
		if !ok {
			return ErrInvalidHeight{Alias: f.alias, Height: height}
		}
	}
	f.rollTo(height)
	r.logger.Debug("fork rolled", "handle", f.handle, "endpoint", f.alias, "height", height)
	return nil
}

// MakePersistent adds addr to the persistence set and snapshots its current
// content, as seen by the active fork, into the registry-wide shared store.
// From here on every fork resolves the address through the shared store, so
// all forks observe identical content at all times.
func (r *Registry) MakePersistent(ctx context.Context, addr libcommon.Address) error {
	f, err := r.ActiveFork()
	if err != nil {
		return err
	}
	if r.persist.Has(addr) {
		return nil
	}
	// Materialize the top-level fields through the active fork so the
	// snapshot reflects what the fork currently observes, remote included.
	content := f.overlay.knownContent(addr)
	if content.balance == nil {
		b, err := f.GetBalance(ctx, addr)
		if err != nil {
			return err
		}
		content.balance = &b
	}
	if content.nonce == nil {
		n, err := f.GetNonce(ctx, addr)
		if err != nil {
			return err
		}
		content.nonce = &n
	}
	if !content.codeSet {
		c, err := f.GetCode(ctx, addr)
		if err != nil {
			return err
		}
		content.code = c
		content.codeSet = true
	}
	r.persist.add(addr, content)
	r.logger.Debug("account marked persistent", "address", addr)
	return nil
}

// RevokePersistent removes addr from the persistence set. The shared content
// is materialized into every existing fork's overlay first, so current values
// stick while future writes diverge per fork again.
func (r *Registry) RevokePersistent(addr libcommon.Address) {
	if !r.persist.Has(addr) {
		return
	}
	content := r.persist.remove(addr)
	for _, f := range r.forks {
		f.overlay.adoptContent(addr, content)
	}
	r.logger.Debug("account persistence revoked", "address", addr)
}

// IsPersistent reports whether addr is in the persistence set.
func (r *Registry) IsPersistent(addr libcommon.Address) bool {
	return r.persist.Has(addr)
}
