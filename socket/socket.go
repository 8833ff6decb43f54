// File: socket/socket.go
// Author: momentics <momentics@gmail.com>
//
// Portable socket core: handler table, event dispatch, connect state
// machine, receive quota and the liveness token protecting dispatch from
// in-handler destruction. Everything that touches the OS lives in the
// platform files; this file owns the state machine and the public
// contract.

package socket

import (
	"sync"

	"github.com/momentics/hioload-sock/api"
	"github.com/momentics/hioload-sock/control"
	"github.com/momentics/hioload-sock/reactor"
)

// NoRecvLimit disables the per-dispatch receive quota.
const NoRecvLimit = -1

const (
	defaultRecvMax = 64
	defaultBacklog = 128
)

// Defaults supplies construction-time tunables for new sockets. Tests and
// embedding applications may override keys before opening sockets.
var Defaults = control.NewConfigStore()

type connectState int

const (
	connectIdle connectState = iota
	connectInProgress
	connectCompleted
)

// liveness is the token observed by the dispatcher to detect destruction
// of the socket from inside a handler.
type liveness struct {
	dead bool
}

// Socket is a non-blocking socket bound to a reactor. All methods must be
// called on the reactor thread; none of them block.
type Socket struct {
	reactor *reactor.Reactor
	metrics *control.MetricsRegistry

	domain      api.Domain
	kind        api.SocketKind
	havePktinfo bool

	globalHandler api.Handler
	handlers      [4]api.Handler
	waitEvents    api.Event

	connState  connectState
	connResult api.Errno

	err api.Errno

	recvMax int
	recvNum int

	alive *liveness

	sys sysSocket
}

var dispatchOrder = [4]api.Event{api.EventRead, api.EventWrite, api.EventAccept, api.EventConnect}

func handlerIndex(ev api.Event) int {
	switch ev {
	case api.EventRead:
		return 0
	case api.EventWrite:
		return 1
	case api.EventAccept:
		return 2
	case api.EventConnect:
		return 3
	default:
		panic("socket: invalid event")
	}
}

var globalInitOnce sync.Once
var globalInitErr error

// GlobalInit performs one-time process-wide socket startup. On Windows it
// initializes Winsock 2.2 and verifies the negotiated version; elsewhere
// it is a no-op. Calling it more than once is harmless.
func GlobalInit() error {
	globalInitOnce.Do(func() {
		globalInitErr = sysGlobalInit()
	})
	return globalInitErr
}

// New creates a non-blocking socket of the given domain and kind and
// registers it with the reactor. Datagram sockets attempt to enable the
// packet-info option; failure there only degrades RecvFromTo and is not
// fatal. Any critical failure closes the descriptor before returning.
func New(r *reactor.Reactor, domain api.Domain, kind api.SocketKind) (*Socket, error) {
	if err := GlobalInit(); err != nil {
		return nil, err
	}
	s := &Socket{
		reactor: r,
		metrics: r.Metrics(),
		domain:  domain,
		kind:    kind,
		err:     api.ErrNone,
		recvMax: Defaults.IntOr(control.KeyDefaultRecvMax, defaultRecvMax),
		alive:   &liveness{},
	}
	if err := s.sysOpen(); err != nil {
		return nil, err
	}
	if err := s.registerBackend(); err != nil {
		s.sysClose()
		return nil, err
	}
	s.metrics.Inc("socket.opens")
	return s, nil
}

// Close unregisters the socket from the reactor, closes the descriptor
// and marks the liveness token dead so an in-flight dispatch unwinds
// without touching the socket again.
func (s *Socket) Close() {
	s.unregisterBackend()
	s.sysClose()
	s.alive.dead = true
	s.metrics.Inc("socket.closes")
}

// Kind returns the socket's transport kind.
func (s *Socket) Kind() api.SocketKind { return s.kind }

// HavePktinfo reports whether per-packet address selection is available.
func (s *Socket) HavePktinfo() bool { return s.havePktinfo }

// LastError returns the outcome recorded by the most recent fallible
// operation; ErrNone after a success.
func (s *Socket) LastError() api.Errno { return s.err }

// SetRecvMax caps the number of receive calls served per readiness
// dispatch; NoRecvLimit removes the cap. Zero is rejected.
func (s *Socket) SetRecvMax(max int) {
	if max <= 0 && max != NoRecvLimit {
		panic("socket: recv max must be positive or NoRecvLimit")
	}
	s.recvMax = max
	s.recvNum = 0
}

// limitRecv consumes one unit of the receive quota, reporting true when
// the quota for this dispatch is already spent.
func (s *Socket) limitRecv() bool {
	if s.recvMax > 0 {
		if s.recvNum >= s.recvMax {
			return true
		}
		s.recvNum++
	}
	return false
}

// AddGlobalHandler installs a handler receiving the whole returned event
// set in one call. Mutually exclusive with per-event handlers.
func (s *Socket) AddGlobalHandler(h api.Handler) {
	if h == nil {
		panic("socket: nil handler")
	}
	if s.globalHandler != nil {
		panic("socket: global handler already installed")
	}
	for _, ph := range s.handlers {
		if ph != nil {
			panic("socket: per-event handlers installed")
		}
	}
	s.globalHandler = h
}

// RemoveGlobalHandler uninstalls the global handler. The wait set is
// cleared and the cleared mask is pushed to the backend so a later poll
// cannot deliver events that no longer have a handler.
func (s *Socket) RemoveGlobalHandler() {
	if s.globalHandler == nil {
		panic("socket: no global handler")
	}
	s.waitEvents = 0
	s.updateBackend()
	s.globalHandler = nil
}

// SetGlobalEvents replaces the whole wait set. Only valid while a global
// handler is installed.
func (s *Socket) SetGlobalEvents(events api.Event) {
	if s.globalHandler == nil {
		panic("socket: no global handler")
	}
	s.waitEvents = events
	s.updateBackend()
}

// AddHandler installs a handler for one logical event.
func (s *Socket) AddHandler(ev api.Event, h api.Handler) {
	if h == nil {
		panic("socket: nil handler")
	}
	if s.globalHandler != nil {
		panic("socket: global handler installed")
	}
	i := handlerIndex(ev)
	if s.handlers[i] != nil {
		panic("socket: handler already installed for event")
	}
	s.handlers[i] = h
}

// RemoveHandler uninstalls a per-event handler, disabling the event first
// if it is enabled.
func (s *Socket) RemoveHandler(ev api.Event) {
	i := handlerIndex(ev)
	if s.handlers[i] == nil {
		panic("socket: no handler for event")
	}
	if s.waitEvents&ev != 0 {
		s.DisableEvent(ev)
	}
	s.handlers[i] = nil
}

// EnableEvent adds one logical event to the wait set. The event must have
// a handler, must not be enabled yet, and must be compatible with the
// events already waited for: Read/Write never coexist with Accept or
// Connect, and Accept and Connect never coexist.
func (s *Socket) EnableEvent(ev api.Event) {
	switch ev {
	case api.EventRead, api.EventWrite:
		if s.waitEvents&(api.EventAccept|api.EventConnect) != 0 {
			panic("socket: read/write incompatible with accept/connect")
		}
	case api.EventAccept:
		if s.waitEvents&(api.EventRead|api.EventWrite|api.EventConnect) != 0 {
			panic("socket: accept incompatible with waited events")
		}
	case api.EventConnect:
		if s.waitEvents&(api.EventRead|api.EventWrite|api.EventAccept) != 0 {
			panic("socket: connect incompatible with waited events")
		}
	default:
		panic("socket: invalid event")
	}
	if s.handlers[handlerIndex(ev)] == nil {
		panic("socket: no handler for event")
	}
	if s.waitEvents&ev != 0 {
		panic("socket: event already enabled")
	}
	s.waitEvents |= ev
	s.updateBackend()
}

// DisableEvent removes one logical event from the wait set.
func (s *Socket) DisableEvent(ev api.Event) {
	if s.handlers[handlerIndex(ev)] == nil {
		panic("socket: no handler for event")
	}
	if s.waitEvents&ev == 0 {
		panic("socket: event not enabled")
	}
	s.waitEvents &^= ev
	s.updateBackend()
}

// dispatch delivers returned events to the installed handlers. The recv
// quota is reset at entry. With a global handler, one call carries the
// whole set; otherwise handlers run in the fixed order Read, Write,
// Accept, Connect. The liveness token is captured before each invocation
// and dispatch aborts as soon as it shows the socket was destroyed.
func (s *Socket) dispatch(returned api.Event) {
	s.recvNum = 0

	if s.globalHandler != nil {
		s.globalHandler(returned)
		return
	}

	token := s.alive
	for _, ev := range dispatchOrder {
		if returned&ev == 0 {
			continue
		}
		h := s.handlers[handlerIndex(ev)]
		if h == nil {
			panic("socket: event delivered without handler")
		}
		h(ev)
		if token.dead {
			return
		}
	}
}

// Connect starts a connection attempt. A synchronous completion returns
// nil. ErrInProgress means the attempt continues in the background: the
// caller should enable EventConnect and read ConnectResult from the
// handler. No attempt may already be in flight.
func (s *Socket) Connect(addr api.Addr) error {
	if s.connState != connectIdle {
		panic("socket: connect attempt already in progress")
	}
	errno := s.sysConnect(addr)
	switch errno {
	case api.ErrNone:
		s.err = api.ErrNone
		s.metrics.Inc("socket.connects")
		return nil
	case api.ErrInProgress:
		s.connState = connectInProgress
		return s.fail(api.ErrInProgress)
	default:
		return s.fail(errno)
	}
}

// ConnectResult consumes the completion of an asynchronous connect. It
// may only be called after the EventConnect notification and resets the
// connect state machine to idle.
func (s *Socket) ConnectResult() api.Errno {
	if s.connState != connectCompleted {
		panic("socket: connect not completed")
	}
	s.connState = connectIdle
	if s.connResult == api.ErrNone {
		s.metrics.Inc("socket.connects")
	}
	return s.connResult
}

// completeConnect records the outcome of a pending connect; called by the
// backend when the completion notification fires, strictly before the
// EventConnect handler runs.
func (s *Socket) completeConnect(result api.Errno) {
	if s.connState != connectInProgress {
		panic("socket: connect completion without attempt")
	}
	s.connState = connectCompleted
	s.connResult = result
}

// Bind assigns the local address. Stream sockets get SO_REUSEADDR first;
// that step is best-effort and only logged on failure.
func (s *Socket) Bind(addr api.Addr) error {
	if errno := s.sysBind(addr); errno != api.ErrNone {
		return s.fail(errno)
	}
	s.ok()
	return nil
}

// Listen switches a bound stream socket to listening. A negative backlog
// selects the default.
func (s *Socket) Listen(backlog int) error {
	if backlog < 0 {
		backlog = Defaults.IntOr(control.KeyDefaultBacklog, defaultBacklog)
	}
	if errno := s.sysListen(backlog); errno != api.ErrNone {
		return s.fail(errno)
	}
	s.ok()
	return nil
}

// Accept takes one pending connection. With a non-nil out, the zero
// Socket is initialized as a registered non-blocking socket of the same
// kind (without the packet-info option); with a nil out the connection is
// closed immediately, which drains the queue. A non-nil addr receives the
// peer address. ErrLater means nothing is queued.
func (s *Socket) Accept(out *Socket, addr *api.Addr) error {
	fd, peer, errno := s.sysAccept()
	if errno != api.ErrNone {
		return s.fail(errno)
	}
	if out == nil {
		closeRawFd(fd)
	} else if errno := s.initAccepted(out, fd); errno != api.ErrNone {
		closeRawFd(fd)
		return s.fail(errno)
	}
	if addr != nil {
		*addr = peer
	}
	s.ok()
	s.metrics.Inc("socket.accepts")
	return nil
}

// initAccepted fills a zero Socket for a freshly accepted descriptor and
// registers it with the listener's reactor.
func (s *Socket) initAccepted(out *Socket, fd sysFd) api.Errno {
	if errno := sysPrepareAccepted(fd); errno != api.ErrNone {
		return errno
	}
	out.reactor = s.reactor
	out.metrics = s.metrics
	out.domain = s.domain
	out.kind = s.kind
	out.havePktinfo = false
	out.err = api.ErrNone
	out.recvMax = Defaults.IntOr(control.KeyDefaultRecvMax, defaultRecvMax)
	out.alive = &liveness{}
	out.sys.fd = fd
	if err := out.registerBackend(); err != nil {
		return api.ErrUnknown
	}
	return api.ErrNone
}

// Send writes to a connected socket.
func (s *Socket) Send(p []byte) (int, error) {
	n, errno := s.sysSend(p)
	if errno != api.ErrNone {
		return 0, s.fail(errno)
	}
	s.ok()
	s.metrics.Inc("socket.sends")
	return n, nil
}

// Recv reads from a connected socket. When the receive quota for the
// current dispatch is spent it returns ErrLater without touching the OS.
func (s *Socket) Recv(p []byte) (int, error) {
	if s.limitRecv() {
		return 0, s.fail(api.ErrLater)
	}
	n, errno := s.sysRecv(p)
	if errno != api.ErrNone {
		return 0, s.fail(errno)
	}
	s.ok()
	s.metrics.Inc("socket.recvs")
	return n, nil
}

// SendTo writes one datagram to the given remote address.
func (s *Socket) SendTo(p []byte, addr api.Addr) (int, error) {
	n, errno := s.sysSendTo(p, addr)
	if errno != api.ErrNone {
		return 0, s.fail(errno)
	}
	s.ok()
	s.metrics.Inc("socket.sends")
	return n, nil
}

// RecvFrom reads one datagram and reports the sender. The receive quota
// applies as in Recv.
func (s *Socket) RecvFrom(p []byte, addr *api.Addr) (int, error) {
	if s.limitRecv() {
		return 0, s.fail(api.ErrLater)
	}
	n, from, errno := s.sysRecvFrom(p)
	if errno != api.ErrNone {
		return 0, s.fail(errno)
	}
	if addr != nil {
		*addr = from
	}
	s.ok()
	s.metrics.Inc("socket.recvs")
	return n, nil
}

// SendToFrom writes one datagram to addr, selecting the local source
// address with a packet-info control message when local is not IPNone.
// Without packet-info support it degrades to SendTo.
func (s *Socket) SendToFrom(p []byte, addr api.Addr, local api.IPAddr) (int, error) {
	if !s.havePktinfo {
		return s.SendTo(p, addr)
	}
	return s.sendToFromPktinfo(p, addr, local)
}

// RecvFromTo reads one datagram, reporting the sender and the local IP
// the datagram was addressed to. Without packet-info support it degrades
// to RecvFrom with local set to IPNone; the same happens when no
// packet-info record accompanies the datagram.
func (s *Socket) RecvFromTo(p []byte, addr *api.Addr, local *api.IPAddr) (int, error) {
	if !s.havePktinfo {
		return s.recvFromToFallback(p, addr, local)
	}
	return s.recvFromToPktinfo(p, addr, local)
}

func (s *Socket) recvFromToFallback(p []byte, addr *api.Addr, local *api.IPAddr) (int, error) {
	n, err := s.RecvFrom(p, addr)
	if err == nil && local != nil {
		*local = api.NoIP()
	}
	return n, err
}

// PeerName reports the remote address of a connected socket.
func (s *Socket) PeerName() (api.Addr, error) {
	addr, errno := s.sysPeerName()
	if errno != api.ErrNone {
		return api.Addr{}, s.fail(errno)
	}
	s.ok()
	return addr, nil
}

// LocalName reports the locally bound address.
func (s *Socket) LocalName() (api.Addr, error) {
	addr, errno := s.sysLocalName()
	if errno != api.ErrNone {
		return api.Addr{}, s.fail(errno)
	}
	s.ok()
	return addr, nil
}

func (s *Socket) fail(e api.Errno) error {
	s.err = e
	return e
}

func (s *Socket) ok() {
	s.err = api.ErrNone
}
