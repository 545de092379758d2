package notify

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"mturk-tools/internal/shared/metrics"
	"mturk-tools/internal/shared/telemetry"
)

const (
	defaultVisibilitySeconds = 60
	defaultWaitSeconds       = 20
	defaultConcurrency       = 4
	defaultShutdownTimeout   = 30 * time.Second
)

// SQSAPI is the subset of the SQS client used by Consumer.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Handler processes one decoded document. Returning an error leaves the
// message on the queue for redelivery.
type Handler func(ctx context.Context, messageID string, doc Document) error

// Consumer long-polls an SQS queue and dispatches MTurk event documents.
type Consumer struct {
	Client            SQSAPI
	QueueURL          string
	Handle            Handler
	Concurrency       int
	VisibilitySeconds int32
	WaitSeconds       int32
	ShutdownTimeout   time.Duration
}

// Run polls until ctx is canceled, then waits up to ShutdownTimeout for
// in-flight messages. Handlers and deletes keep running during that window
// and are canceled when it ends.
func (c *Consumer) Run(ctx context.Context) error {
	if c.Client == nil || c.Handle == nil || strings.TrimSpace(c.QueueURL) == "" {
		return errors.New("consumer requires a client, handler and queue url")
	}
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	visibility := c.VisibilitySeconds
	if visibility <= 0 {
		visibility = defaultVisibilitySeconds
	}
	wait := c.WaitSeconds
	if wait <= 0 {
		wait = defaultWaitSeconds
	}
	shutdown := c.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = defaultShutdownTimeout
	}

	handleCtx, cancelHandlers := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelHandlers()

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	telemetry.Info("notify.consumer.started", map[string]any{
		"queue_url":   c.QueueURL,
		"concurrency": concurrency,
		"visibility":  visibility,
	})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := c.Client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.QueueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     wait,
			VisibilityTimeout:   visibility,
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Error("notify.receive_failed", map[string]any{"error": err.Error()})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				c.handleMessage(handleCtx, m)
			}(msg)
		}
	}

	telemetry.Info("notify.consumer.stopping", map[string]any{"timeout": shutdown.String()})
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdown):
		telemetry.Warn("notify.consumer.shutdown_timeout", nil)
	}
	return nil
}

func (c *Consumer) handleMessage(ctx context.Context, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	doc, err := DecodeDocument(body)
	if err != nil {
		fields := baseFields(msg)
		fields["body_len"] = len(body)
		fields["error"] = err.Error()
		telemetry.Error("notify.message.decode_failed", fields)
		metrics.IncMessagesFailed()
		// malformed documents never become valid; drop them
		c.deleteMessage(ctx, msg)
		return
	}

	metrics.IncEventsReceived(len(doc.Events))
	fields := baseFields(msg)
	fields["events"] = len(doc.Events)
	telemetry.Info("notify.message.received", fields)

	if err := c.Handle(ctx, aws.ToString(msg.MessageId), doc); err != nil {
		fields := baseFields(msg)
		fields["error"] = err.Error()
		telemetry.Error("notify.message.failed", fields)
		metrics.IncMessagesFailed()
		return
	}
	c.deleteMessage(ctx, msg)
}

func (c *Consumer) deleteMessage(ctx context.Context, msg sqstypes.Message) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg)
		fields["error"] = "missing receipt handle"
		telemetry.Error("notify.message.delete_failed", fields)
		return false
	}
	if _, err := c.Client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.QueueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg)
		fields["error"] = err.Error()
		telemetry.Error("notify.message.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message) map[string]any {
	return map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}
