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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forkstate_remote_fetches_total",
		Help: "Remote state fetch attempts by RPC method",
	}, []string{"method"})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forkstate_remote_fetch_errors_total",
		Help: "Remote state fetches that failed after bounded retry",
	}, []string{"method"})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forkstate_remote_retries_total",
		Help: "Transient remote failures that triggered a retry",
	})

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forkstate_remote_cache_hits_total",
		Help: "Remote state reads served from the immutable fetch cache",
	})
)
