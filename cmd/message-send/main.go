// Package main implements the message send Lambda handler (POST /emails).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda/xrayconfig"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel"

	"github.com/mkarlsen/webmail-backend/internal/logging"
	"github.com/mkarlsen/webmail-backend/internal/message"
	"github.com/mkarlsen/webmail-backend/internal/notify"
)

var logger = logging.New()

// MessageSender defines the interface for creating sent messages.
type MessageSender interface {
	SendMessage(ctx context.Context, identity string, compose message.ComposeFields) (*message.Message, error)
}

// handler implements the send logic.
type handler struct {
	repo      MessageSender
	publisher notify.SentPublisher
}

// newHandler creates a new handler.
func newHandler(repo MessageSender, publisher notify.SentPublisher) *handler {
	return &handler{repo: repo, publisher: publisher}
}

// handle processes a send request. The notification publish is best-effort:
// once the store write succeeds the message is durably created, so a publish
// failure is logged and the response still reports success.
func (h *handler) handle(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	tracer := otel.Tracer("webmail-message-send")
	ctx, span := tracer.Start(ctx, "MessageSendHandler")
	defer span.End()

	identity := requestIdentity(request)
	if identity == "" {
		return errorResponse(http.StatusUnauthorized, "not authenticated"), nil
	}

	var compose message.ComposeFields
	if err := json.Unmarshal([]byte(request.Body), &compose); err != nil {
		return errorResponse(http.StatusBadRequest, "request body must be JSON compose fields"), nil
	}

	msg, err := h.repo.SendMessage(ctx, identity, compose)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to send message",
			slog.String("error", err.Error()))
		return mapError(err), nil
	}

	if h.publisher != nil {
		if err := h.publisher.PublishSent(ctx, identity, msg.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to publish sent notification",
				slog.String("messageId", msg.ID),
				slog.String("error", err.Error()))
		}
	}

	logger.InfoContext(ctx, "Message sent",
		slog.String("messageId", msg.ID))
	return jsonResponse(http.StatusCreated, msg), nil
}

// requestIdentity extracts the authenticated identity from the JWT
// authorizer claims.
func requestIdentity(request events.APIGatewayV2HTTPRequest) string {
	auth := request.RequestContext.Authorizer
	if auth == nil || auth.JWT == nil {
		return ""
	}
	return auth.JWT.Claims["sub"]
}

// jsonResponse builds a JSON API Gateway response.
func jsonResponse(status int, v any) events.APIGatewayV2HTTPResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "encoding failure")
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

// errorResponse builds a JSON error response.
func errorResponse(status int, msg string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

// mapError converts adapter errors to HTTP responses.
func mapError(err error) events.APIGatewayV2HTTPResponse {
	var validation *message.ValidationError
	switch {
	case errors.As(err, &validation):
		return errorResponse(http.StatusBadRequest, validation.Error())
	case errors.Is(err, message.ErrMessageNotFound):
		return errorResponse(http.StatusNotFound, "message not found")
	case errors.Is(err, message.ErrNotAuthenticated):
		return errorResponse(http.StatusUnauthorized, "not authenticated")
	default:
		return errorResponse(http.StatusBadGateway, "store unavailable")
	}
}

func main() {
	ctx := context.Background()

	tp, err := xrayconfig.NewTracerProvider(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to initialize tracer provider", slog.String("error", err.Error()))
		panic(err)
	}
	otel.SetTracerProvider(tp)

	tableName := os.Getenv("MAIL_TABLE_NAME")
	sentNotifyQueueURL := os.Getenv("SENT_NOTIFY_QUEUE_URL")

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to load AWS config", slog.String("error", err.Error()))
		panic(err)
	}

	// Instrument AWS SDK clients with OTel tracing
	otelaws.AppendMiddlewares(&cfg.APIOptions)

	dynamoClient := dynamodb.NewFromConfig(cfg)
	repo := message.NewDynamoDBRepository(dynamoClient, tableName)

	var publisher notify.SentPublisher
	if sentNotifyQueueURL != "" {
		sqsClient := sqs.NewFromConfig(cfg)
		publisher = notify.NewSQSPublisher(sqsClient, sentNotifyQueueURL)
	}

	h := newHandler(repo, publisher)
	lambda.Start(otellambda.InstrumentHandler(h.handle, xrayconfig.WithRecommendedOptions(tp)...))
}
