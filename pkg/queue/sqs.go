package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

const maxReceive = 10

// SQSAPI is the subset of the SQS client used here.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, opts ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, opts ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func NewSQSClient(cfg aws.Config) *sqs.Client {
	return sqs.NewFromConfig(cfg)
}

// SQSPublisher sends messages to queue URLs.
type SQSPublisher struct {
	api SQSAPI
}

func NewSQSPublisher(api SQSAPI) *SQSPublisher {
	return &SQSPublisher{api: api}
}

func (p *SQSPublisher) Publish(ctx context.Context, queue, body string) error {
	out, err := p.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queue),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("sending to %s: %w", queue, err)
	}
	slog.Debug("message sent", "queue", queue, "id", aws.ToString(out.MessageId))
	return nil
}

// SQSConsumer long-polls a single queue.
type SQSConsumer struct {
	api               SQSAPI
	queue             string
	maxMessages       int32
	waitSeconds       int32
	visibilitySeconds int32
}

func NewSQSConsumer(api SQSAPI, queue string, maxMessages, waitSeconds, visibilitySeconds int) *SQSConsumer {
	if maxMessages <= 0 {
		maxMessages = 1
	}
	if maxMessages > maxReceive {
		maxMessages = maxReceive
	}
	return &SQSConsumer{
		api:               api,
		queue:             queue,
		maxMessages:       int32(maxMessages),       //nolint:gosec // bounded above
		waitSeconds:       int32(waitSeconds),       //nolint:gosec // config value
		visibilitySeconds: int32(visibilitySeconds), //nolint:gosec // config value
	}
}

func (c *SQSConsumer) Queue() string {
	return c.queue
}

// Receive returns the next batch of messages, possibly empty.
func (c *SQSConsumer) Receive(ctx context.Context) ([]Message, error) {
	in := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queue),
		MaxNumberOfMessages: c.maxMessages,
		WaitTimeSeconds:     c.waitSeconds,
	}
	if c.visibilitySeconds > 0 {
		in.VisibilityTimeout = c.visibilitySeconds
	}

	out, err := c.api.ReceiveMessage(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("receiving from %s: %w", c.queue, err)
	}

	msgs := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, Message{
			ID:            aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          aws.ToString(m.Body),
		})
	}
	return msgs, nil
}

func (c *SQSConsumer) Delete(ctx context.Context, m Message) error {
	if _, err := c.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queue),
		ReceiptHandle: aws.String(m.ReceiptHandle),
	}); err != nil {
		return fmt.Errorf("deleting %s from %s: %w", m.ID, c.queue, err)
	}
	return nil
}
