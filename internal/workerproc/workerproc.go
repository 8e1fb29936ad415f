package workerproc

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"resume-formatter/internal/queue"
	"resume-formatter/internal/shared/telemetry"
	"resume-formatter/internal/shared/util"
)

// Processor formats the resume a job points at.
type Processor interface {
	ProcessJob(ctx context.Context, msg queue.Message) error
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	return MessageMeta{BodyLen: len(body), BodySHA: util.HashKey(body)}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrInvalidJob indicates a message without the storage keys a job needs.
type ErrInvalidJob struct {
	Meta      MessageMeta
	JobID     string
	RequestID string
	Err       error
}

func (e ErrInvalidJob) Error() string {
	if e.Err == nil {
		return "invalid format job"
	}
	return "invalid format job: " + e.Err.Error()
}

func (e ErrInvalidJob) Unwrap() error { return e.Err }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	JobID     string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process format job"
	}
	return "process format job: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Permanent reports whether retrying err cannot succeed. Such messages are
// deleted instead of returned to the queue.
func Permanent(err error) bool {
	var empty ErrEmptyBody
	var decode ErrDecode
	var invalid ErrInvalidJob
	return errors.As(err, &empty) || errors.As(err, &decode) || errors.As(err, &invalid)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if err := msg.Validate(); err != nil {
		return msg, meta, ErrInvalidJob{Meta: meta, JobID: msg.JobID, RequestID: msg.RequestID, Err: err}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and processes a message payload.
func HandleMessage(ctx context.Context, processor Processor, body string) error {
	if processor == nil {
		return errors.New("format processor not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}
	if err := msg.Validate(); err != nil {
		return ErrInvalidJob{Meta: ComputeMeta(body), JobID: msg.JobID, RequestID: msg.RequestID, Err: err}
	}

	ctxWithRequest := telemetry.WithRequestID(ctx, msg.RequestID)
	if err := processJob(ctxWithRequest, processor, msg); err != nil {
		return ErrProcess{JobID: msg.JobID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}

// processJob turns a panic in the processor into an error so one message
// cannot take down the worker.
func processJob(ctx context.Context, processor Processor, msg queue.Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("worker.format.panic", map[string]any{
				"job_id":     msg.JobID,
				"request_id": msg.RequestID,
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
			})
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return processor.ProcessJob(ctx, msg)
}
