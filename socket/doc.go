// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package socket provides non-blocking stream and datagram sockets driven
// by a reactor event loop. One portable contract covers two OS event
// models: file-descriptor readiness on Linux and network-event objects on
// Windows. Datagram sockets additionally support per-packet source and
// destination selection through IP_PKTINFO/IPV6_PKTINFO control messages,
// with a graceful fallback when the option is unavailable.
package socket
