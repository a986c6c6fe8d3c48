// Package main implements the flag update Lambda handler
// (PUT /emails/{mailbox}/{id}).
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
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda/xrayconfig"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel"

	"github.com/mkarlsen/webmail-backend/internal/logging"
	"github.com/mkarlsen/webmail-backend/internal/message"
)

var logger = logging.New()

// FlagUpdater defines the interface for partial flag updates.
type FlagUpdater interface {
	UpdateFlags(ctx context.Context, identity string, mailbox message.Mailbox, id string, patch message.FlagPatch) error
}

// handler implements the flag update logic.
type handler struct {
	repo FlagUpdater
}

// newHandler creates a new handler.
func newHandler(repo FlagUpdater) *handler {
	return &handler{repo: repo}
}

// handle processes a partial flag update. Only the flags present in the
// request body are changed.
func (h *handler) handle(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	tracer := otel.Tracer("webmail-message-flags")
	ctx, span := tracer.Start(ctx, "MessageFlagsHandler")
	defer span.End()

	identity := requestIdentity(request)
	if identity == "" {
		return errorResponse(http.StatusUnauthorized, "not authenticated"), nil
	}

	mailbox, err := message.ParseMailbox(request.PathParameters["mailbox"])
	if err != nil {
		return errorResponse(http.StatusBadRequest, err.Error()), nil
	}
	id := request.PathParameters["id"]
	if id == "" {
		return errorResponse(http.StatusBadRequest, "message id is required"), nil
	}

	var patch message.FlagPatch
	if err := json.Unmarshal([]byte(request.Body), &patch); err != nil {
		return errorResponse(http.StatusBadRequest, "request body must be a JSON flag patch"), nil
	}

	if err := h.repo.UpdateFlags(ctx, identity, mailbox, id, patch); err != nil {
		if !errors.Is(err, message.ErrMessageNotFound) {
			logger.ErrorContext(ctx, "Failed to update flags",
				slog.String("mailbox", string(mailbox)),
				slog.String("id", id),
				slog.String("error", err.Error()))
		}
		return mapError(err), nil
	}

	return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNoContent}, nil
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

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to load AWS config", slog.String("error", err.Error()))
		panic(err)
	}

	// Instrument AWS SDK clients with OTel tracing
	otelaws.AppendMiddlewares(&cfg.APIOptions)

	dynamoClient := dynamodb.NewFromConfig(cfg)
	repo := message.NewDynamoDBRepository(dynamoClient, tableName)

	h := newHandler(repo)
	lambda.Start(otellambda.InstrumentHandler(h.handle, xrayconfig.WithRecommendedOptions(tp)...))
}
