package server

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// reaperLoop wakes every cfg.ReapEvery and releases any connection idle
// longer than cfg.IdleExpiry, or already marked CLOSING. cfg.Workers reaper
// goroutines run concurrently, each one a disjoint shard of the live
// connections partitioned by fd % total: shard only sees a connection when
// c.fd%total == shard, so the shards never race on the same conn. The walk
// still holds connsMu for its duration, exactly as the live-connection list
// invariant requires.
func (s *Server) reaperLoop(ctx context.Context, shard, total int) error {
	ticker := time.NewTicker(s.cfg.ReapEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(shard, total)
		}
	}
}

func (s *Server) sweep(shard, total int) {
	now := time.Now()

	s.connsMu.Lock()
	var stale []*conn
	for c := s.head; c != nil; c = c.next {
		if c.fd%total != shard {
			continue
		}
		if c.state == StateClosing || c.idleFor(now) > s.cfg.IdleExpiry {
			stale = append(stale, c)
		}
	}
	s.connsMu.Unlock()

	for _, c := range stale {
		_ = unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, c.fd, nil)
		unix.Close(c.fd)
		s.removeConn(c)
	}
	if len(stale) > 0 {
		s.logger.Debug("reaper released idle connections",
			zap.Int("count", len(stale)), zap.Int("shard", shard))
	}
}
