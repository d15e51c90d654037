package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSAPI - используемая часть клиента SQS.
type SQSAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type sqsQueue struct {
	client   SQSAPI
	name     string
	waitTime int32

	mu  sync.Mutex
	url string
}

func NewSQSQueue(client SQSAPI, name string, waitTimeSeconds int32) Queue {
	return &sqsQueue{client: client, name: name, waitTime: waitTimeSeconds}
}

func (q *sqsQueue) Name() string {
	return q.name
}

func (q *sqsQueue) EnsureQueue(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	out, err := q.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(q.name)})
	if err == nil {
		q.url = aws.ToString(out.QueueUrl)
		return nil
	}
	var notExist *types.QueueDoesNotExist
	if !errors.As(err, &notExist) {
		return err
	}

	created, err := q.client.CreateQueue(ctx, &sqs.CreateQueueInput{QueueName: aws.String(q.name)})
	if err != nil {
		return err
	}
	q.url = aws.ToString(created.QueueUrl)
	return nil
}

// queueURL возвращает адрес очереди, определяя его при первом обращении.
func (q *sqsQueue) queueURL(ctx context.Context) (string, error) {
	q.mu.Lock()
	url := q.url
	q.mu.Unlock()
	if url != "" {
		return url, nil
	}

	out, err := q.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(q.name)})
	if err != nil {
		var notExist *types.QueueDoesNotExist
		if errors.As(err, &notExist) {
			return "", ErrQueueNotFound
		}
		return "", err
	}

	q.mu.Lock()
	q.url = aws.ToString(out.QueueUrl)
	q.mu.Unlock()
	return aws.ToString(out.QueueUrl), nil
}

func (q *sqsQueue) Send(ctx context.Context, body []byte) error {
	url, err := q.queueURL(ctx)
	if err != nil {
		return err
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(string(body)),
	})
	return err
}

func (q *sqsQueue) Receive(ctx context.Context, max int32) ([]Message, error) {
	url, err := q.queueURL(ctx)
	if err != nil {
		return nil, err
	}
	// ограничения SQS на размер пачки
	if max < 1 {
		max = 1
	}
	if max > 10 {
		max = 10
	}

	result, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(url),
		MaxNumberOfMessages: max,
		WaitTimeSeconds:     q.waitTime,
	})
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(result.Messages))
	for _, msg := range result.Messages {
		messages = append(messages, Message{
			ID:     aws.ToString(msg.MessageId),
			Body:   []byte(aws.ToString(msg.Body)),
			Handle: aws.ToString(msg.ReceiptHandle),
		})
	}
	return messages, nil
}

func (q *sqsQueue) Delete(ctx context.Context, msg Message) error {
	url, err := q.queueURL(ctx)
	if err != nil {
		return err
	}
	_, err = q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(url),
		ReceiptHandle: aws.String(msg.Handle),
	})
	return err
}

// Неудаленные сообщения SQS возвращает сам по истечении visibility timeout.
func (q *sqsQueue) Requeue(ctx context.Context) (int, error) {
	return 0, nil
}

func (q *sqsQueue) Close() error {
	return nil
}
