package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthClient опрашивает HealthServer
type HealthClient struct {
	client healthpb.HealthClient
	conn   *grpc.ClientConn
}

func NewHealthClient(ctx context.Context, serverAddr string, opts ...grpc.DialOption) (*HealthClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.DialContext(ctx, serverAddr, opts...)
	if err != nil {
		return nil, fmt.Errorf("подключение к %s: %w", serverAddr, err)
	}

	return &HealthClient{
		client: healthpb.NewHealthClient(conn),
		conn:   conn,
	}, nil
}

// Close закрывает соединение с сервером
func (c *HealthClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// Check возвращает статус сервиса, пустое имя - общий статус сервера
func (c *HealthClient) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := c.client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("проверка состояния: %w", err)
	}
	return resp.GetStatus(), nil
}
