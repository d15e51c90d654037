package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iurnickita/abcretail/internal/config"
	"github.com/iurnickita/abcretail/internal/consumer"
	"github.com/iurnickita/abcretail/internal/logger"
	"github.com/iurnickita/abcretail/internal/queue"
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

	queue, err := queue.NewQueue(ctx, cfg.Queue)
	if err != nil {
		return err
	}
	defer queue.Close()

	return consumer.NewConsumer(cfg.Consumer, queue, zaplog).Run(ctx)
}
