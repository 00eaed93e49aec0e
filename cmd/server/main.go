package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ButyrinIA/board/internal/config"
	"github.com/ButyrinIA/board/internal/server"
	"github.com/ButyrinIA/board/internal/storage"
	"github.com/ButyrinIA/board/internal/storage/memory"
	"github.com/ButyrinIA/board/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	storageType := flag.String("storage", "memory", "тип хранилища: memory или postgres")
	flag.Parse()

	if err := run(*configPath, *storageType); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(configPath, storageType string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var store storage.Storage
	switch storageType {
	case "postgres":
		slog.Info("Инициализация хранилища PostgreSQL")
		store, err = postgres.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
	case "memory":
		slog.Info("Инициализация хранилища Memory")
		store = memory.New()
	default:
		return fmt.Errorf("неизвестный тип хранилища: %s", storageType)
	}
	defer store.Close()

	srv := server.New(cfg, store)
	slog.Info("Запуск сервера", "addr", cfg.Addr())
	return srv.Run(ctx)
}
