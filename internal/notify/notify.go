// Package notify provides async sent-message notifications via SQS.
package notify

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SentPublisher announces a completed send so other sessions can refresh
// their sent listing. Delivery is best-effort: a publish failure must never
// fail the send itself.
type SentPublisher interface {
	PublishSent(ctx context.Context, identity, messageID string) error
}

// SentMessage is the SQS message body for a sent-message notification.
type SentMessage struct {
	Identity  string `json:"identity"`
	MessageID string `json:"messageId"`
}

// SQSSender abstracts SQS send operations for dependency inversion.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher publishes sent-message notifications to an SQS queue.
type SQSPublisher struct {
	client   SQSSender
	queueURL string
}

// NewSQSPublisher creates a new SQSPublisher.
func NewSQSPublisher(client SQSSender, queueURL string) *SQSPublisher {
	return &SQSPublisher{
		client:   client,
		queueURL: queueURL,
	}
}

// PublishSent sends a sent-message notification to SQS.
func (p *SQSPublisher) PublishSent(ctx context.Context, identity, messageID string) error {
	if messageID == "" {
		return nil
	}

	msg := SentMessage{
		Identity:  identity,
		MessageID: messageID,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	bodyStr := string(body)
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &p.queueURL,
		MessageBody: &bodyStr,
	})
	return err
}
