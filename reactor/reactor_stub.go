//go:build !linux && !windows
// +build !linux,!windows

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub for platforms without a reactor backend.

package reactor

import (
	"errors"

	"github.com/momentics/hioload-sock/control"
)

// Reactor is unavailable on this platform.
type Reactor struct{}

// New reports that no reactor backend exists for this platform.
func New() (*Reactor, error) {
	return nil, errors.New("reactor: platform not supported")
}

// Metrics exposes an empty counter registry.
func (r *Reactor) Metrics() *control.MetricsRegistry { return control.NewMetricsRegistry() }

// Probes exposes an empty debug probe registry.
func (r *Reactor) Probes() *control.DebugProbes { return control.NewDebugProbes() }

// Wake is a no-op.
func (r *Reactor) Wake() error { return nil }

// Poll is unavailable.
func (r *Reactor) Poll(timeoutMs int) error { return errors.New("reactor: platform not supported") }

// Run is unavailable.
func (r *Reactor) Run(stop <-chan struct{}) error {
	return errors.New("reactor: platform not supported")
}

// Close is a no-op.
func (r *Reactor) Close() error { return nil }
