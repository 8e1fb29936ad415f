package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"resume-formatter/internal/bootstrap"
	"resume-formatter/internal/shared/config"
	"resume-formatter/internal/shared/metrics"
	"resume-formatter/internal/shared/telemetry"
	"resume-formatter/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(context.Background(), cfg, bootstrap.BuildOptions{})
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda_worker.bootstrap_failed", map[string]any{"error": initErr.Error()})
		return failAll(event), initErr
	}
	return handleEvent(ctx, app.Jobs, event), nil
}

// handleEvent reports retryable failures back to SQS. Messages that can never
// succeed are dropped so they do not cycle until the redrive limit.
func handleEvent(ctx context.Context, processor workerproc.Processor, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncJobsReceived()
		err := workerproc.HandleMessage(ctx, processor, record.Body)
		if err == nil {
			metrics.IncJobsCompleted()
			continue
		}
		fields := map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()}
		if workerproc.Permanent(err) {
			telemetry.Error("lambda_worker.message_dropped", fields)
			metrics.IncJobsDeletedUnrecoverable()
			continue
		}
		telemetry.Error("lambda_worker.message_failed", fields)
		metrics.IncJobsFailed()
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func failAll(event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
	for _, record := range event.Records {
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
