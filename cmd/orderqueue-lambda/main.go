// Точка входа потребителя очереди заказов для AWS Lambda с триггером SQS.
package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/iurnickita/abcretail/internal/config"
	"github.com/iurnickita/abcretail/internal/consumer"
	"github.com/iurnickita/abcretail/internal/logger"
)

func main() {
	cfg, err := config.Load(nil, os.Getenv)
	if err != nil {
		log.Fatal(err)
	}

	zaplog, err := logger.NewZapLog(cfg.Logger)
	if err != nil {
		log.Fatal(err)
	}

	// очередью управляет триггер, удалять сообщения самим не нужно
	c := consumer.NewConsumer(cfg.Consumer, nil, zaplog)

	lambda.Start(func(ctx context.Context, event events.SQSEvent) error {
		for _, record := range event.Records {
			// ошибка разбора уже залогирована, повтор не поможет
			c.Handle(ctx, []byte(record.Body))
		}
		zaplog.Debug("sqs batch handled", zap.Int("records", len(event.Records)))
		return nil
	})
}
