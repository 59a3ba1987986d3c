package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"gridcalc/internal/session"
)

// Server принимает TCP соединения и запускает по сессии на каждое
type Server struct {
	proc     *session.Processor
	listener net.Listener

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	wg       sync.WaitGroup
	shutdown atomic.Bool
}

func New(proc *session.Processor) *Server {
	return &Server{
		proc:  proc,
		conns: make(map[net.Conn]struct{}),
	}
}

// Listen открывает порт, addr в формате ":10000"
func (s *Server) Listen(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("ошибка при прослушивании %s: %w", addr, err)
	}
	s.listener = lis
	log.Printf("Сервер вычислений запущен на %s", lis.Addr())
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve принимает соединения, пока не вызван Shutdown
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("сервер не слушает порт, сначала вызовите Listen")
	}

	var delay time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				delay = backoff(delay)
				log.Printf("Error : accept: %v, повтор через %v", err, delay)
				time.Sleep(delay)
				continue
			}
			return fmt.Errorf("ошибка приема соединения: %w", err)
		}
		delay = 0

		if !s.track(conn) {
			conn.Close()
			return nil
		}

		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			if err := session.New(conn, s.proc).Serve(ctx); err != nil {
				log.Printf("Error : сессия завершилась с ошибкой: %v", err)
			}
		}()
	}
}

// Shutdown закрывает порт и все открытые соединения и ждет завершения сессий
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Store(true)

	var err error
	if s.listener != nil {
		if cerr := s.listener.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("ожидание сессий: %w", ctx.Err())
	}
}

// track регистрирует соединение вместе с его горутиной. После Shutdown новые не принимаются.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// ActiveSessions - число открытых соединений
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func backoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
