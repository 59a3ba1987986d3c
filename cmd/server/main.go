package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gridcalc/internal/api"
	"gridcalc/internal/config"
	"gridcalc/internal/database"
	"gridcalc/internal/engine"
	"gridcalc/internal/grpc"
	"gridcalc/internal/server"
	"gridcalc/internal/session"
	"gridcalc/internal/stats"
	"gridcalc/internal/tuples"
	"gridcalc/internal/worker"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [port]\n", os.Args[0])
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	switch len(os.Args) {
	case 1:
	case 2:
		port, err := config.ParsePort(os.Args[1])
		if err != nil {
			usage()
		}
		cfg.TCPPort = port
	default:
		usage()
	}

	compPool := worker.NewBounded("computation", cfg.ComputingPower)
	statPool := worker.NewCached("stat")
	eng := engine.New(compPool, tuples.NewBuilder(cfg.MaxDomainSize))
	tracker := stats.NewTracker(statPool)

	var journal *database.Journal
	var proc *session.Processor
	var history api.History
	if cfg.HistoryLimit > 0 {
		journal, err = database.Open(cfg.HistoryLimit)
		if err != nil {
			log.Fatalf("Ошибка открытия журнала: %v", err)
		}
		proc = session.NewProcessor(eng, tracker, journal)
		history = journal
	} else {
		proc = session.NewProcessor(eng, tracker, nil)
	}

	log.Printf("Пул вычислений: %d воркеров, лимит значений: %d, журнал: %d записей",
		cfg.ComputingPower, cfg.MaxDomainSize, cfg.HistoryLimit)

	srv := server.New(proc)
	if err := srv.Listen(":" + strconv.Itoa(cfg.TCPPort)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	var health *grpc.HealthServer
	if cfg.GRPCAddr != "" {
		health = grpc.NewHealthServer()
		go func() {
			if err := health.ListenAndServe(cfg.GRPCAddr); err != nil {
				log.Fatalf("Failed to start gRPC server: %v", err)
			}
		}()
		health.SetServing(true)
	}

	var httpServer *http.Server
	if cfg.HTTPAddr != "" {
		httpServer = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.SetupRouter(api.NewHandler(proc, history)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("Starting HTTP server on %s", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("Failed to start HTTP server: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx) }()

	select {
	case <-ctx.Done():
		log.Printf("Получен сигнал завершения, останавливаем сервер")
	case err := <-serveErr:
		if err != nil {
			log.Printf("Error : %v", err)
		}
	}

	if health != nil {
		health.SetServing(false)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error : остановка сервера: %v", err)
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error : остановка HTTP сервера: %v", err)
		}
	}
	if health != nil {
		health.Stop()
	}
	if journal != nil {
		if err := journal.Close(); err != nil {
			log.Printf("Error : закрытие журнала: %v", err)
		}
	}
	log.Printf("Сервер остановлен")
}
