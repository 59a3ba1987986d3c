package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"gridcalc/internal/grpc"
	"gridcalc/internal/protocol"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Отправляет строки из stdin на сервер вычислений и печатает ответы",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
			if err != nil {
				return fmt.Errorf("не удалось подключиться к %s: %w", addr, err)
			}
			defer conn.Close()
			return run(conn, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "localhost:10000", "адрес сервера вычислений")
	cmd.AddCommand(newHealthCommand())
	return cmd
}

func newHealthCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Проверяет состояние сервера по gRPC health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := grpc.NewHealthClient(ctx, addr)
			if err != nil {
				return err
			}
			defer client.Close()

			st, err := client.Check(ctx, grpc.ServiceName)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.String())
			if st.String() != "SERVING" {
				return fmt.Errorf("сервис %s в состоянии %s", grpc.ServiceName, st)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "localhost:8081", "адрес gRPC health")
	return cmd
}

// run отправляет строки из in на сервер и печатает ответы в out до BYE или конца ввода
func run(conn io.ReadWriter, in io.Reader, out io.Writer) error {
	replies := bufio.NewReader(conn)
	lines := bufio.NewScanner(in)
	lines.Buffer(make([]byte, 64*1024), 1024*1024)

	for lines.Scan() {
		line := strings.TrimSpace(lines.Text())
		if line == "" {
			continue
		}
		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			return fmt.Errorf("отправка запроса: %w", err)
		}
		if line == protocol.QuitCommand {
			return nil
		}

		reply, err := replies.ReadString('\n')
		if err != nil {
			return fmt.Errorf("чтение ответа: %w", err)
		}
		fmt.Fprint(out, reply)
	}
	return lines.Err()
}
