package server

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestServerForReaper() *Server {
	return &Server{
		logger:    zap.NewNop(),
		connsByFD: make(map[int]*conn),
		epfd:      -1,
	}
}

// addFakeConn links a conn with an out-of-range fd (never a real open
// descriptor) directly into the live-connection list, bypassing addConn's
// epoll registration, so sweep's unix.Close/EpollCtl calls on it are
// harmless no-ops.
func addFakeConn(s *Server, fd int, state State) *conn {
	c := &conn{fd: fd, state: state}
	c.touch()
	s.connsMu.Lock()
	s.connsByFD[fd] = c
	c.next = s.head
	if s.head != nil {
		s.head.prev = c
	}
	s.head = c
	s.connsMu.Unlock()
	return c
}

func TestSweep_OnlyTouchesItsOwnShard(t *testing.T) {
	s := newTestServerForReaper()
	const total = 4
	// One closing connection per shard, fd chosen so fd%total == its shard.
	for shard := 0; shard < total; shard++ {
		addFakeConn(s, 9000+shard, StateClosing)
	}

	s.sweep(1, total)

	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if _, ok := s.connsByFD[9001]; ok {
		t.Error("expected shard 1's closing connection to be reaped")
	}
	for shard := 0; shard < total; shard++ {
		if shard == 1 {
			continue
		}
		if _, ok := s.connsByFD[9000+shard]; !ok {
			t.Errorf("expected shard %d's connection to be left alone by shard 1's sweep", shard)
		}
	}
}

func TestSweep_ReapsIdleConnectionsPastExpiry(t *testing.T) {
	s := newTestServerForReaper()
	s.cfg.IdleExpiry = time.Millisecond

	c := addFakeConn(s, 9100, StateReading)
	c.lastActivity.Store(time.Now().Add(-time.Hour).UnixNano())

	s.sweep(9100%1, 1)

	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if _, ok := s.connsByFD[9100]; ok {
		t.Error("expected the long-idle connection to be reaped")
	}
}

func TestWorkerCount_DefaultsToOneWhenUnset(t *testing.T) {
	s := &Server{}
	if got := s.workerCount(); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}

func TestWorkerCount_UsesConfiguredValue(t *testing.T) {
	s := &Server{cfg: Config{Workers: 7}}
	if got := s.workerCount(); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
}
