package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"gridcalc/internal/engine"
	"gridcalc/internal/session"
	"gridcalc/internal/stats"
	"gridcalc/internal/tuples"
	"gridcalc/internal/worker"
)

func startServer(t *testing.T) (*Server, <-chan error) {
	t.Helper()
	eng := engine.New(worker.NewBounded("comp", 2), tuples.NewBuilder(0))
	proc := session.NewProcessor(eng, stats.NewTracker(nil), nil)

	srv := New(proc)
	if err := srv.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background()) }()
	return srv, done
}

func dial(t *testing.T, srv *Server) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

func exchange(t *testing.T, conn net.Conn, r *bufio.Reader, line string) string {
	t.Helper()
	conn.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		t.Fatalf("write %q: %v", line, err)
	}
	resp, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read response to %q: %v", line, err)
	}
	return strings.TrimSuffix(resp, "\n")
}

func result(line string) string {
	parts := strings.SplitN(line, ";", 3)
	if len(parts) != 3 {
		return line
	}
	return parts[2]
}

func TestServerSharesStatsAcrossConnections(t *testing.T) {
	srv, done := startServer(t)

	c1, r1 := dial(t, srv)
	c2, r2 := dial(t, srv)

	if got := result(exchange(t, c1, r1, "STAT_REQS")); got != "0" {
		t.Errorf("STAT_REQS = %q, want 0", got)
	}
	if got := result(exchange(t, c2, r2, "MAX_GRID;x:0:1:2;( x * x )")); got != "4.0" {
		t.Errorf("MAX_GRID = %q, want 4.0", got)
	}
	if got := result(exchange(t, c1, r1, "STAT_REQS")); got != "2" {
		t.Errorf("STAT_REQS = %q, want 2", got)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after Shutdown")
	}
}

func TestServerConcurrentSessions(t *testing.T) {
	srv, _ := startServer(t)
	defer srv.Shutdown(context.Background())

	const clients = 8
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
			if err != nil {
				t.Errorf("Dial() error = %v", err)
				return
			}
			defer conn.Close()
			conn.SetDeadline(time.Now().Add(5 * time.Second))

			r := bufio.NewReader(conn)
			for j := 0; j < 5; j++ {
				fmt.Fprintf(conn, "COUNT_GRID;x:0:1:%d,y:0:1:1;x\n", j)
				resp, err := r.ReadString('\n')
				if err != nil {
					t.Errorf("read error = %v", err)
					return
				}
				if got, want := result(strings.TrimSpace(resp)), fmt.Sprint((j+1)*2); got != want {
					t.Errorf("COUNT_GRID = %q, want %q", got, want)
				}
			}
			fmt.Fprintf(conn, "BYE\n")
		}()
	}
	wg.Wait()
}

func TestServerByeClosesConnection(t *testing.T) {
	srv, _ := startServer(t)
	defer srv.Shutdown(context.Background())

	conn, r := dial(t, srv)
	if _, err := fmt.Fprintf(conn, "BYE\n"); err != nil {
		t.Fatalf("write BYE: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if line, err := r.ReadString('\n'); err == nil {
		t.Errorf("read after BYE = %q, want connection closed", line)
	}
}

func TestShutdownClosesOpenSessions(t *testing.T) {
	srv, done := startServer(t)

	conn, r := dial(t, srv)
	exchange(t, conn, r, "STAT_REQS")
	if n := srv.ActiveSessions(); n != 1 {
		t.Errorf("ActiveSessions() = %d, want 1", n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	<-done

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := r.ReadString('\n'); err == nil {
		t.Error("read after Shutdown succeeded, want closed connection")
	}
	if n := srv.ActiveSessions(); n != 0 {
		t.Errorf("ActiveSessions() = %d after Shutdown, want 0", n)
	}
}
