// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the single-threaded cooperative event loop the
// socket layer runs on: file-descriptor readiness on Linux, signaled event
// objects on Windows, and a stub elsewhere.
package reactor
