// Package consumer обрабатывает уведомления о новых заказах из очереди.
// Обработка сводится к записи в лог.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iurnickita/abcretail/internal/consumer/config"
	"github.com/iurnickita/abcretail/internal/model"
	"github.com/iurnickita/abcretail/internal/queue"
)

var ErrEmptyMessage = errors.New("empty order message")

// DeserializationError - сообщение не удалось разобрать как заказ.
type DeserializationError struct {
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("invalid order message: %v", e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

type Consumer struct {
	cfg    config.Config
	queue  queue.Queue
	zaplog *zap.Logger
}

func NewConsumer(cfg config.Config, queue queue.Queue, zaplog *zap.Logger) *Consumer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return &Consumer{cfg: cfg, queue: queue, zaplog: zaplog}
}

// Handle обрабатывает одно сообщение. Ошибка разбора логируется и возвращается
// только для сведения: сообщение в любом случае считается обработанным.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	c.zaplog.Info("processing queue message", zap.ByteString("message", body))

	var order *model.Order
	if err := json.Unmarshal(body, &order); err != nil {
		dErr := &DeserializationError{Err: err}
		c.zaplog.Error("error processing queue message", zap.Error(dErr))
		return dErr
	}
	if order == nil {
		dErr := &DeserializationError{Err: ErrEmptyMessage}
		c.zaplog.Error("received invalid order message", zap.Error(dErr))
		return dErr
	}

	// TODO: подтверждение покупателю и списание остатков, когда появятся сервисы склада и уведомлений
	c.zaplog.Info("new order processed successfully", zap.String("order_id", order.OrderID))
	return nil
}

// Run читает очередь до отмены контекста. Сообщения пачки обрабатываются
// параллельно, не более cfg.Workers одновременно, и удаляются после обработки.
func (c *Consumer) Run(ctx context.Context) error {
	c.zaplog.Info("order queue consumer started",
		zap.String("queue", c.queue.Name()),
		zap.Int("workers", c.cfg.Workers))

	if err := c.queue.EnsureQueue(ctx); err != nil {
		return err
	}
	requeued, err := c.queue.Requeue(ctx)
	if err != nil {
		return err
	}
	if requeued > 0 {
		c.zaplog.Warn("unfinished messages returned to the queue", zap.Int("count", requeued))
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		messages, err := c.queue.Receive(ctx, c.cfg.BatchSize)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.zaplog.Error("error receiving messages", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.cfg.ErrorInterval):
			}
			continue
		}
		if len(messages) == 0 {
			continue
		}

		c.processBatch(ctx, messages)
	}
}

func (c *Consumer) processBatch(ctx context.Context, messages []queue.Message) {
	var g errgroup.Group
	g.SetLimit(c.cfg.Workers)

	for _, msg := range messages {
		msg := msg
		g.Go(func() error {
			c.Handle(ctx, msg.Body)

			// удаляем даже после ошибки разбора, иначе сообщение вернется снова
			if err := c.queue.Delete(context.WithoutCancel(ctx), msg); err != nil {
				c.zaplog.Error("failed to delete message",
					zap.String("message_id", msg.ID),
					zap.Error(err))
			}
			return nil
		})
	}
	g.Wait()
}
