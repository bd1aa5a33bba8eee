package server

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const epollWaitTimeoutMillis = 1000

// reactorLoop is the single-reactor accept/read/write loop. It blocks only
// inside EpollWait, with a 1s timeout so ctx cancellation is noticed
// promptly without a wakeup pipe.
func (s *Server) reactorLoop(ctx context.Context) error {
	events := make([]unix.EpollEvent, 256)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := unix.EpollWait(s.epfd, events, epollWaitTimeoutMillis)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}

		for i := 0; i < n; i++ {
			ev := events[i]
			fd := int(ev.Fd)

			if fd == s.listenFD {
				s.acceptLoop()
				continue
			}

			s.connsMu.Lock()
			c := s.connsByFD[fd]
			s.connsMu.Unlock()
			if c == nil {
				continue
			}

			if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				s.closeConn(c)
				continue
			}
			if ev.Events&unix.EPOLLIN != 0 {
				s.handleReadable(c)
			}
			if c.state != StateClosing && ev.Events&unix.EPOLLOUT != 0 {
				s.handleWritable(c)
			}
		}
	}
}

// acceptLoop drains the listening socket's accept queue until EAGAIN,
// rejecting new connections once active_connections reaches MaxClients.
func (s *Server) acceptLoop() {
	for {
		nfd, sa, err := unix.Accept4(s.listenFD, unix.SOCK_NONBLOCK)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return
			}
			s.logger.Warn("accept failed", zap.Error(err))
			return
		}

		if s.activeConnections.Load() >= MaxClients {
			unix.Close(nfd)
			continue
		}

		if err := configureClientSocket(nfd); err != nil {
			s.logger.Warn("configuring client socket failed", zap.Error(err))
			unix.Close(nfd)
			continue
		}

		ev := unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLET, Fd: int32(nfd)}
		if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, nfd, &ev); err != nil {
			s.logger.Warn("registering client socket failed", zap.Error(err))
			unix.Close(nfd)
			continue
		}

		c := newConn(nfd, sockaddrToNetAddr(sa))
		s.addConn(c)
		if s.metrics != nil {
			s.metrics.Connections.Set(float64(s.activeConnections.Load()))
		}
	}
}

func configureClientSocket(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return err
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, 60)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, 10)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, 3)
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, bufSize)
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, bufSize)
	return nil
}

// handleReadable drains fd into the read buffer until EAGAIN, processing
// every complete line synchronously as it appears. Edge-triggered readiness
// requires a full drain per fire; a partial read left unconsumed here would
// silently stall the connection.
func (s *Server) handleReadable(c *conn) {
	for {
		if c.readLen == bufSize {
			// Line-in-progress fills the buffer with no terminator: protocol fatal.
			writeError(c, ErrCommandTooLong.Error())
			s.flushAndClose(c)
			return
		}

		n, err := unix.Read(c.fd, c.readBuf[c.readLen:])
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				break
			}
			s.closeConn(c)
			return
		}
		if n == 0 {
			s.closeConn(c)
			return
		}
		c.readLen += n
		c.touch()

		consumed := s.processBuffered(c)
		c.compactReadBuf(consumed)

		if c.state == StateClosing {
			s.flushAndClose(c)
			return
		}
	}

	if c.pendingWrite() {
		s.armWrite(c)
	}
}

// processBuffered extracts and dispatches every complete line currently in
// the read buffer, returning the number of bytes consumed.
func (s *Server) processBuffered(c *conn) int {
	consumed := 0
	for {
		remaining := c.readBuf[consumed:c.readLen]
		end := findLine(remaining)
		if end < 0 {
			break
		}
		line := remaining[:end-1] // drop the \n; tokenize strips a trailing \r
		consumed += end

		c.state = StateProcessing
		tokens := tokenize(line)
		if len(tokens) > 0 {
			dispatch(s, c, tokens)
		}
		if c.state == StateClosing {
			break
		}
		c.state = StateReading
	}
	return consumed
}

// handleWritable drains the write buffer until EAGAIN or empty, then
// deregisters write-readiness.
func (s *Server) handleWritable(c *conn) {
	for c.pendingWrite() {
		n, err := unix.Write(c.fd, c.writeBuf[c.writePos:c.writeLen])
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return
			}
			s.closeConn(c)
			return
		}
		c.writePos += n
	}

	c.resetWriteBuf()
	s.disarmWrite(c)

	if c.state == StateClosing {
		s.closeConn(c)
	}
}

// flushAndClose attempts a best-effort synchronous drain of the write
// buffer before closing, for fatal paths that must send their error reply
// before disconnecting.
func (s *Server) flushAndClose(c *conn) {
	for c.pendingWrite() {
		n, err := unix.Write(c.fd, c.writeBuf[c.writePos:c.writeLen])
		if err != nil {
			break
		}
		if n == 0 {
			break
		}
		c.writePos += n
	}
	s.closeConn(c)
}

func (s *Server) armWrite(c *conn) {
	if c.writeArmed {
		return
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLOUT | unix.EPOLLET, Fd: int32(c.fd)}
	if unix.EpollCtl(s.epfd, unix.EPOLL_CTL_MOD, c.fd, &ev) == nil {
		c.writeArmed = true
	}
}

func (s *Server) disarmWrite(c *conn) {
	if !c.writeArmed {
		return
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLET, Fd: int32(c.fd)}
	if unix.EpollCtl(s.epfd, unix.EPOLL_CTL_MOD, c.fd, &ev) == nil {
		c.writeArmed = false
	}
}

func (s *Server) addConn(c *conn) {
	s.connsMu.Lock()
	s.connsByFD[c.fd] = c
	c.next = s.head
	if s.head != nil {
		s.head.prev = c
	}
	s.head = c
	s.connsMu.Unlock()
	s.activeConnections.Add(1)
}

func (s *Server) removeConn(c *conn) {
	s.connsMu.Lock()
	delete(s.connsByFD, c.fd)
	if c.prev != nil {
		c.prev.next = c.next
	} else if s.head == c {
		s.head = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	}
	c.next, c.prev = nil, nil
	s.connsMu.Unlock()
	s.activeConnections.Add(-1)
	if s.metrics != nil {
		s.metrics.Connections.Set(float64(s.activeConnections.Load()))
	}
}

func (s *Server) closeConn(c *conn) {
	_ = unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, c.fd, nil)
	unix.Close(c.fd)
	s.removeConn(c)
}

func sockaddrToNetAddr(sa unix.Sockaddr) net.Addr {
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		ip := net.IPv4(in4.Addr[0], in4.Addr[1], in4.Addr[2], in4.Addr[3])
		return &net.TCPAddr{IP: ip, Port: in4.Port}
	}
	return nil
}
