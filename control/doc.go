// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics, configuration defaults, and debug introspection for the
// socket and reactor layers.
//
// Provides concurrent-safe state handling primitives including:
//   - Immutable snapshot config reads and atomic updates
//   - Counter telemetry for socket and reactor operations
//   - Debug hooks and probe registration
package control
