//go:build windows
// +build windows

// File: socket/init_windows.go
// Author: momentics <momentics@gmail.com>
//
// Winsock startup. Requests version 2.2 and rejects anything else the
// library negotiates.

package socket

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

const winsockVersion = 0x0202

func sysGlobalInit() error {
	var data windows.WSAData
	if err := windows.WSAStartup(uint32(winsockVersion), &data); err != nil {
		return fmt.Errorf("WSAStartup: %w", err)
	}
	if data.Version != winsockVersion {
		windows.WSACleanup()
		return errors.New("socket: winsock 2.2 not available")
	}
	return nil
}
