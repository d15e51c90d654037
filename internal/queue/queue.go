package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/iurnickita/abcretail/internal/awscfg"
	"github.com/iurnickita/abcretail/internal/queue/config"
)

// Message - сообщение, полученное из очереди.
// Handle нужен для подтверждения обработки через Delete.
type Message struct {
	ID     string
	Body   []byte
	Handle string
}

type Queue interface {
	Name() string
	// EnsureQueue создает очередь, если ее нет.
	EnsureQueue(ctx context.Context) error
	Send(ctx context.Context, body []byte) error
	// Receive ждет сообщения не дольше времени long polling.
	// Пустой результат без ошибки - сообщений нет.
	Receive(ctx context.Context, max int32) ([]Message, error)
	Delete(ctx context.Context, msg Message) error
	// Requeue возвращает в очередь сообщения, полученные, но не удаленные
	// прошлым запуском потребителя. Возвращает их число.
	Requeue(ctx context.Context) (int, error)
	Close() error
}

var (
	ErrQueueNotFound  = errors.New("queue not found")
	ErrUnknownBackend = errors.New("unknown queue backend")
)

func NewQueue(ctx context.Context, cfg config.Config) (Queue, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return NewRedisQueue(cfg), nil
	case config.BackendSQS:
		awsCfg, err := awscfg.Load(ctx, cfg.Region)
		if err != nil {
			return nil, err
		}
		return NewSQSQueue(awscfg.NewSQSClient(awsCfg, cfg.Endpoint), cfg.QueueName, cfg.WaitTimeSeconds), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
