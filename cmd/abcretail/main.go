package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iurnickita/abcretail/internal/auth"
	"github.com/iurnickita/abcretail/internal/blob"
	"github.com/iurnickita/abcretail/internal/config"
	"github.com/iurnickita/abcretail/internal/fileshare"
	"github.com/iurnickita/abcretail/internal/handler"
	"github.com/iurnickita/abcretail/internal/logger"
	"github.com/iurnickita/abcretail/internal/queue"
	"github.com/iurnickita/abcretail/internal/service"
	"github.com/iurnickita/abcretail/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	zaplog, err := logger.NewZapLog(cfg.Logger)
	if err != nil {
		return err
	}
	defer zaplog.Sync()

	store, err := store.NewStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	queue, err := queue.NewQueue(ctx, cfg.Queue)
	if err != nil {
		return err
	}
	defer queue.Close()

	blob, err := blob.NewBlob(ctx, cfg.Blob)
	if err != nil {
		return err
	}

	share := fileshare.NewFileShare(cfg.FileShare)

	auth := auth.NewAuth(cfg.Auth, zaplog)
	service := service.NewService(store, queue, blob, share, zaplog)

	return handler.Serve(ctx, cfg.Handler, auth, service, zaplog)
}
