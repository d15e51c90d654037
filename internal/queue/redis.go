package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iurnickita/abcretail/internal/queue/config"
)

// redisQueue - очередь на списке Redis.
// Полученное сообщение переносится в список processing и удаляется оттуда
// после обработки. Requeue при старте потребителя возвращает застрявшие
// там сообщения в очередь.
type redisQueue struct {
	client     *redis.Client
	name       string
	key        string
	processing string
	wait       time.Duration
}

// Нулевой таймаут BLMOVE ждет бесконечно.
const minWait = time.Second

func NewRedisQueue(cfg config.Config) Queue {
	wait := time.Duration(cfg.WaitTimeSeconds) * time.Second
	if wait < minWait {
		wait = minWait
	}
	return &redisQueue{
		client: redis.NewClient(&redis.Options{
			Addr:                  cfg.RedisAddr,
			ContextTimeoutEnabled: true,
		}),
		name:       cfg.QueueName,
		key:        fmt.Sprintf("queue:%s", cfg.QueueName),
		processing: fmt.Sprintf("queue:%s:processing", cfg.QueueName),
		wait:       wait,
	}
}

func (q *redisQueue) Name() string {
	return q.name
}

// Списки Redis создаются при первой записи, достаточно проверить соединение.
func (q *redisQueue) EnsureQueue(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *redisQueue) Send(ctx context.Context, body []byte) error {
	return q.client.LPush(ctx, q.key, body).Err()
}

func (q *redisQueue) Receive(ctx context.Context, max int32) ([]Message, error) {
	var messages []Message

	// первое сообщение ждем, остальные забираем без ожидания
	body, err := q.client.BLMove(ctx, q.key, q.processing, "RIGHT", "LEFT", q.wait).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	messages = append(messages, Message{Body: []byte(body), Handle: body})

	for int32(len(messages)) < max {
		body, err := q.client.LMove(ctx, q.key, q.processing, "RIGHT", "LEFT").Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return messages, err
		}
		messages = append(messages, Message{Body: []byte(body), Handle: body})
	}
	return messages, nil
}

func (q *redisQueue) Delete(ctx context.Context, msg Message) error {
	return q.client.LRem(ctx, q.processing, 1, msg.Handle).Err()
}

// Requeue переносит processing обратно в очередь с того конца, откуда
// читает Receive. Порядок сообщений сохраняется.
func (q *redisQueue) Requeue(ctx context.Context) (int, error) {
	n := 0
	for {
		err := q.client.LMove(ctx, q.processing, q.key, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

func (q *redisQueue) Close() error {
	return q.client.Close()
}
