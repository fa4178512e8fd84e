package worker

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/mchmarny/genrelay/pkg/queue"
)

// LambdaHandler adapts a ProcessFunc to an SQS event source with partial
// batch responses, so only failed records are redelivered.
func LambdaHandler(fn ProcessFunc) func(ctx context.Context, e events.SQSEvent) (events.SQSEventResponse, error) {
	return func(ctx context.Context, e events.SQSEvent) (events.SQSEventResponse, error) {
		msgs := make([]queue.Message, 0, len(e.Records))
		for _, r := range e.Records {
			msgs = append(msgs, queue.Message{
				ID:            r.MessageId,
				ReceiptHandle: r.ReceiptHandle,
				Body:          r.Body,
			})
		}

		res := Batch(ctx, msgs, fn)
		resp := events.SQSEventResponse{
			BatchItemFailures: make([]events.SQSBatchItemFailure, 0, len(res.Failed)),
		}
		for _, f := range res.Failed {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: f.Message.ID,
			})
		}
		return resp, nil
	}
}
