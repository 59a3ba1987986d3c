package grpc

import (
	"fmt"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// ServiceName - имя сервиса в ответах health
const ServiceName = "gridcalc"

// HealthServer отдает состояние сервера вычислений по стандартному протоколу grpc.health.v1
type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
}

func NewHealthServer() *HealthServer {
	// Настройки для keepalive и размеров сообщений
	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(1024 * 1024),
		grpc.MaxSendMsgSize(1024 * 1024),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     time.Minute,
			MaxConnectionAge:      5 * time.Minute,
			MaxConnectionAgeGrace: 20 * time.Second,
			Time:                  20 * time.Second,
			Timeout:               10 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	s := &HealthServer{
		srv:    grpc.NewServer(opts...),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.srv, s.health)
	s.SetServing(false)
	return s
}

// SetServing переключает общий статус и статус сервиса ServiceName
func (s *HealthServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Serve обслуживает запросы на lis до вызова Stop
func (s *HealthServer) Serve(lis net.Listener) error {
	log.Printf("gRPC сервер запущен на %s", lis.Addr())
	if err := s.srv.Serve(lis); err != nil {
		return fmt.Errorf("gRPC сервер: %w", err)
	}
	return nil
}

// ListenAndServe открывает порт и обслуживает запросы
func (s *HealthServer) ListenAndServe(address string) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("ошибка при прослушивании %s: %w", address, err)
	}
	return s.Serve(lis)
}

// Stop переводит все сервисы в NOT_SERVING и останавливает сервер
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
