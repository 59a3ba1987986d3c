package config

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	TCPPort        int
	HTTPAddr       string // пустая строка - HTTP API выключен
	GRPCAddr       string // пустая строка - gRPC выключен
	ComputingPower int
	MaxDomainSize  int
	HistoryLimit   int
}

// Load читает первый найденный .env и затем переменные окружения
func Load() (Config, error) {
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err == nil {
			break
		}
	}
	return FromEnv()
}

// FromEnv собирает конфигурацию из переменных окружения
func FromEnv() (Config, error) {
	var cfg Config
	var err error

	if cfg.TCPPort, err = intEnv("CALC_TCP_PORT", 10000); err != nil {
		return cfg, err
	}
	if cfg.TCPPort < 0 || cfg.TCPPort > 65535 {
		return cfg, fmt.Errorf("invalid CALC_TCP_PORT: %d", cfg.TCPPort)
	}

	if cfg.HTTPAddr, err = addrEnv("CALC_HTTP_PORT", "8080"); err != nil {
		return cfg, err
	}
	if cfg.GRPCAddr, err = addrEnv("CALC_GRPC_PORT", "8081"); err != nil {
		return cfg, err
	}

	if cfg.ComputingPower, err = intEnv("COMPUTING_POWER", runtime.NumCPU()); err != nil {
		return cfg, err
	}
	if cfg.ComputingPower < 1 {
		return cfg, fmt.Errorf("invalid COMPUTING_POWER: %d", cfg.ComputingPower)
	}

	if cfg.MaxDomainSize, err = intEnv("MAX_DOMAIN_SIZE", 1000000); err != nil {
		return cfg, err
	}
	if cfg.HistoryLimit, err = intEnv("HISTORY_LIMIT", 1000); err != nil {
		return cfg, err
	}
	if cfg.MaxDomainSize < 0 || cfg.HistoryLimit < 0 {
		return cfg, fmt.Errorf("MAX_DOMAIN_SIZE and HISTORY_LIMIT must not be negative")
	}

	return cfg, nil
}

// ParsePort разбирает номер порта из аргумента командной строки
func ParsePort(arg string) (int, error) {
	port, err := strconv.Atoi(arg)
	if err != nil || port < 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", arg)
	}
	return port, nil
}

func intEnv(key string, defaultValue int) (int, error) {
	v, err := strconv.Atoi(getEnvOrDefault(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// addrEnv возвращает адрес вида ":8080". Переменная, заданная пустой строкой, выключает сервис.
func addrEnv(key, defaultPort string) (string, error) {
	value, ok := os.LookupEnv(key)
	if ok && value == "" {
		return "", nil
	}
	if !ok {
		log.Printf("ВНИМАНИЕ: Переменная окружения %s не установлена, используется значение по умолчанию", key)
		value = defaultPort
	}
	if _, err := ParsePort(value); err != nil {
		return "", fmt.Errorf("invalid %s: %w", key, err)
	}
	return ":" + value, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Printf("ВНИМАНИЕ: Переменная окружения %s не установлена, используется значение по умолчанию", key)
	return defaultValue
}
