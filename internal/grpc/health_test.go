package grpc

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024 * 1024

func setupHealthServer(t *testing.T) (*HealthServer, *bufconn.Listener) {
	t.Helper()
	lis := bufconn.Listen(bufSize)
	srv := NewHealthServer()

	go func() {
		if err := srv.Serve(lis); err != nil {
			t.Errorf("Ошибка запуска сервера: %v", err)
		}
	}()
	t.Cleanup(func() {
		srv.Stop()
		lis.Close()
	})
	return srv, lis
}

// bufDialer реализует функцию для установки соединения через bufconn
func bufDialer(lis *bufconn.Listener) func(context.Context, string) (net.Conn, error) {
	return func(ctx context.Context, s string) (net.Conn, error) {
		return lis.Dial()
	}
}

func dialHealth(t *testing.T, lis *bufconn.Listener) *HealthClient {
	t.Helper()
	client, err := NewHealthClient(context.Background(), "bufnet", grpc.WithContextDialer(bufDialer(lis)))
	if err != nil {
		t.Fatalf("Ошибка подключения к серверу: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestHealthStatusFollowsServing(t *testing.T) {
	srv, lis := setupHealthServer(t)
	client := dialHealth(t, lis)
	ctx := context.Background()

	tests := []struct {
		name    string
		serving bool
		want    healthpb.HealthCheckResponse_ServingStatus
	}{
		{name: "сервер запущен", serving: true, want: healthpb.HealthCheckResponse_SERVING},
		{name: "сервер останавливается", serving: false, want: healthpb.HealthCheckResponse_NOT_SERVING},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv.SetServing(tt.serving)
			for _, service := range []string{"", ServiceName} {
				got, err := client.Check(ctx, service)
				if err != nil {
					t.Fatalf("Check(%q) error = %v", service, err)
				}
				if got != tt.want {
					t.Errorf("Check(%q) = %v, want %v", service, got, tt.want)
				}
			}
		})
	}
}

func TestHealthStartsNotServing(t *testing.T) {
	_, lis := setupHealthServer(t)
	client := dialHealth(t, lis)

	got, err := client.Check(context.Background(), ServiceName)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("Check() = %v, want NOT_SERVING", got)
	}
}

func TestHealthUnknownService(t *testing.T) {
	_, lis := setupHealthServer(t)
	client := dialHealth(t, lis)

	_, err := client.Check(context.Background(), "other")
	if status.Code(err) != codes.NotFound {
		t.Errorf("Check(other) error = %v, want NotFound", err)
	}
}
