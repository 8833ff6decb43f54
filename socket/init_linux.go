//go:build linux
// +build linux

// File: socket/init_linux.go
// Author: momentics <momentics@gmail.com>

package socket

// sysGlobalInit needs no process-wide setup on Linux.
func sysGlobalInit() error {
	return nil
}
