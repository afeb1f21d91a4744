/*
 * Copyright 2025 The TeamPulse Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package server provides the TeamPulse server which is the main entry point
// of the TeamPulse system. The server wires the backend, its housekeeping
// loop and the profiling server together.
package server

import (
	"context"
	gosync "sync"

	"github.com/teampulse/teampulse/server/backend"
	"github.com/teampulse/teampulse/server/profiling"
	"github.com/teampulse/teampulse/server/profiling/prometheus"
)

// TeamPulse is a server of TeamPulse.
// The server stores teams, projects, status updates and invitations in the
// repository and serves them to the service layer.
type TeamPulse struct {
	lock gosync.Mutex

	conf            *Config
	backend         *backend.Backend
	profilingServer *profiling.Server

	shutdown   bool
	shutdownCh chan struct{}
}

// New creates a new instance of TeamPulse.
func New(conf *Config) (*TeamPulse, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	be, err := backend.New(
		conf.Backend,
		conf.Mongo,
		conf.Housekeeping,
		metrics,
	)
	if err != nil {
		return nil, err
	}

	var profilingServer *profiling.Server
	if conf.Profiling != nil {
		profilingServer = profiling.NewServer(conf.Profiling, metrics)
	}

	return &TeamPulse{
		conf:            conf,
		backend:         be,
		profilingServer: profilingServer,
		shutdownCh:      make(chan struct{}),
	}, nil
}

// Start starts the server by starting the backend and the profiling server.
func (r *TeamPulse) Start() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.backend.Start(context.Background()); err != nil {
		return err
	}

	if r.profilingServer != nil {
		return r.profilingServer.Start()
	}

	return nil
}

// Shutdown shuts down this TeamPulse server.
func (r *TeamPulse) Shutdown(graceful bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.shutdown {
		return nil
	}

	if r.profilingServer != nil {
		r.profilingServer.Shutdown(graceful)
	}

	if err := r.backend.Shutdown(); err != nil {
		return err
	}

	close(r.shutdownCh)
	r.shutdown = true
	return nil
}

// ShutdownCh returns the shutdown channel.
func (r *TeamPulse) ShutdownCh() <-chan struct{} {
	return r.shutdownCh
}

// Backend returns the backend of this server. It is used for testing.
func (r *TeamPulse) Backend() *backend.Backend {
	return r.backend
}

// ProfilingAddr returns the address of the profiling server.
func (r *TeamPulse) ProfilingAddr() string {
	return r.conf.ProfilingAddr()
}
