package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"

	"github.com/google/uuid"
)

// Client - источник запроса
type Client struct {
	SessionID string
	Addr      string
}

// Session обслуживает одно соединение: строка запроса, строка ответа, и так до BYE
type Session struct {
	client Client
	conn   net.Conn
	proc   *Processor
}

func New(conn net.Conn, proc *Processor) *Session {
	addr := "unknown"
	if ra := conn.RemoteAddr(); ra != nil {
		addr = ra.String()
	}
	return &Session{
		client: Client{SessionID: uuid.New().String(), Addr: addr},
		conn:   conn,
		proc:   proc,
	}
}

func (s *Session) ID() string {
	return s.client.SessionID
}

// Serve читает запросы до BYE или ошибки чтения и закрывает соединение
func (s *Session) Serve(ctx context.Context) error {
	addr := s.client.Addr
	log.Printf("Info : %s has connected", addr)
	defer func() {
		s.conn.Close()
		log.Printf("Info : %s has disconnected", addr)
	}()

	reader := bufio.NewReader(s.conn)
	for {
		line, err := reader.ReadString('\n')
		// последняя строка без перевода строки перед закрытием тоже обрабатывается
		last := err != nil && errors.Is(err, io.EOF) && line != ""
		if err != nil && !last {
			log.Printf("Info : Didn't receive request from %s", addr)
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("Error : %v", err)
			s.write(errLine(err.Error()))
			return fmt.Errorf("чтение запроса: %w", err)
		}

		log.Printf("Info : Received request \"%s\" from %s", trimLine(line), addr)

		reply := s.proc.Process(ctx, s.client, line)
		if reply.Quit {
			return nil
		}

		if err := s.write(reply.Line); err != nil {
			log.Printf("Error : %v", err)
			return fmt.Errorf("отправка ответа: %w", err)
		}
		if reply.OK {
			log.Printf("Info : Replied to %s with \"%s\"", addr, reply.Result)
		}
		if last {
			return nil
		}
	}
}

func (s *Session) write(line string) error {
	_, err := io.WriteString(s.conn, line+"\n")
	return err
}

func trimLine(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
