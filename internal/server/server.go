// Package server implements the networked request pipeline: a
// single-reactor non-blocking accept/read/write loop (component G) built
// on golang.org/x/sys/unix epoll, the line parser (H), dispatch table (I),
// reply encoder (J), idle-connection reaper (K), and command handlers (L).
//
// The reactor follows the same direct-syscall style as the arena
// allocator's raw mmap/munmap calls (arena/mem.go), generalized to
// golang.org/x/sys/unix for socket and epoll operations.
package server

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/thebagchi/kvstored/internal/metrics"
	"github.com/thebagchi/kvstored/internal/store"
)

// Version is reported by the INFO command.
const Version = "1.0.0"

// MaxClients is the hard ceiling on concurrently accepted connections.
const MaxClients = 10000

// Config holds the CLI-derived server parameters.
type Config struct {
	Bind       string
	Port       int
	Backlog    int
	Capacity   int
	DBFile     string
	AutoSave   bool
	ReapEvery  time.Duration
	IdleExpiry time.Duration
	Workers    int
}

// DefaultConfig mirrors the CLI flag defaults.
func DefaultConfig() Config {
	return Config{
		Bind:       "127.0.0.1",
		Port:       7379,
		Backlog:    511,
		Capacity:   16,
		DBFile:     "kvstore.db",
		AutoSave:   true,
		ReapEvery:  10 * time.Second,
		IdleExpiry: 300 * time.Second,
		Workers:    4,
	}
}

// workerCount returns cfg.Workers, defaulting to 1 for a zero-value Config
// so a caller that never sets it still gets a single reaper goroutine.
func (s *Server) workerCount() int {
	if s.cfg.Workers < 1 {
		return 1
	}
	return s.cfg.Workers
}

// Server owns the listening socket, the epoll instance, and the
// live-connection list shared between the reactor and the reaper.
type Server struct {
	cfg     Config
	store   *store.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	dbFile  string

	epfd     int
	listenFD int

	connsMu   sync.Mutex
	connsByFD map[int]*conn
	head      *conn // intrusive live-connection list

	running           atomic.Bool
	requests          atomic.Int64
	errorCount        atomic.Int64
	activeConnections atomic.Int64

	startTime time.Time
}

// New constructs a Server bound to no socket yet; call Run to listen and
// serve.
func New(cfg Config, st *store.Store, logger *zap.Logger, m *metrics.Metrics) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		logger:    logger,
		metrics:   m,
		dbFile:    cfg.DBFile,
		connsByFD: make(map[int]*conn),
		startTime: time.Now(),
	}
}

func (s *Server) uptime() time.Duration { return time.Since(s.startTime) }

func (s *Server) recordError() {
	s.errorCount.Add(1)
	if s.metrics != nil {
		s.metrics.Errors.Inc()
	}
}

// Run listens on cfg.Bind:cfg.Port and drives the reactor and reaper until
// ctx is cancelled, at which point it performs a clean shutdown: auto-save
// iff store.Size() > 0, then releases every connection and the listening
// socket.
func (s *Server) Run(ctx context.Context) error {
	if err := s.listen(); err != nil {
		return err
	}
	defer s.closeAll()

	s.running.Store(true)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.reactorLoop(gctx) })

	workers := s.workerCount()
	for i := 0; i < workers; i++ {
		shard := i
		g.Go(func() error { return s.reaperLoop(gctx, shard, workers) })
	}

	err := g.Wait()

	if s.cfg.AutoSave && s.store.Size() > 0 {
		if saveErr := s.store.Save(s.dbFile); saveErr != nil {
			s.logger.Error("auto-save on shutdown failed", zap.Error(saveErr))
		} else {
			s.logger.Info("auto-saved on shutdown", zap.String("file", s.dbFile))
		}
	}
	return err
}

func (s *Server) listen() error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return fmt.Errorf("creating listen socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return fmt.Errorf("setting SO_REUSEADDR: %w", err)
	}

	var addr [4]byte
	if ip := parseIPv4(s.cfg.Bind); ip != nil {
		addr = *ip
	}
	sa := &unix.SockaddrInet4{Port: s.cfg.Port, Addr: addr}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return fmt.Errorf("binding %s:%d: %w", s.cfg.Bind, s.cfg.Port, err)
	}
	if err := unix.Listen(fd, s.cfg.Backlog); err != nil {
		unix.Close(fd)
		return fmt.Errorf("listening: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return fmt.Errorf("setting listen socket non-blocking: %w", err)
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("creating epoll instance: %w", err)
	}

	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		unix.Close(fd)
		unix.Close(epfd)
		return fmt.Errorf("registering listen socket: %w", err)
	}

	s.listenFD = fd
	s.epfd = epfd
	s.logger.Info("listening", zap.String("bind", s.cfg.Bind), zap.Int("port", s.cfg.Port))
	return nil
}

func (s *Server) closeAll() {
	s.running.Store(false)

	s.connsMu.Lock()
	for fd, c := range s.connsByFD {
		unix.Close(fd)
		c.state = StateClosing
	}
	s.connsByFD = make(map[int]*conn)
	s.head = nil
	s.connsMu.Unlock()

	if s.listenFD != 0 {
		unix.Close(s.listenFD)
	}
	if s.epfd != 0 {
		unix.Close(s.epfd)
	}
}

func parseIPv4(host string) *[4]byte {
	var out [4]byte
	var a, b, c, d int
	n, err := fmt.Sscanf(host, "%d.%d.%d.%d", &a, &b, &c, &d)
	if err != nil || n != 4 {
		return nil
	}
	out = [4]byte{byte(a), byte(b), byte(c), byte(d)}
	return &out
}
