// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package api holds the portable value types shared by the reactor and
// socket layers: addresses, logical events, socket kinds and the stable
// error taxonomy.
package api
