// Package reststore implements the mailbox store adapter over a generic
// REST resource.
package reststore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mkarlsen/webmail-backend/internal/message"
)

// HTTPDoer abstracts HTTP client operations for dependency inversion.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a message.Repository backed by the REST message resource:
//
//	GET  /emails/{mailbox}
//	GET  /emails/{mailbox}/{id}
//	POST /emails
//	PUT  /emails/{mailbox}/{id}
//
// Failed calls are not retried; the caller decides whether to re-invoke.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a Client using the given HTTP client.
func NewClient(baseURL string, httpClient HTTPDoer) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// NewDefaultClient creates a Client with an OTel-instrumented transport.
func NewDefaultClient(baseURL string) *Client {
	return NewClient(baseURL, &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

// mailboxURL constructs the listing URL for a mailbox.
func (c *Client) mailboxURL(mailbox message.Mailbox) string {
	return c.baseURL + "/emails/" + url.PathEscape(string(mailbox))
}

// messageURL constructs the URL for a single message.
func (c *Client) messageURL(mailbox message.Mailbox, id string) string {
	return c.mailboxURL(mailbox) + "/" + url.PathEscape(id)
}

// ListMailbox returns the mailbox's messages, newest first.
func (c *Client) ListMailbox(ctx context.Context, identity string, mailbox message.Mailbox) ([]*message.Message, error) {
	if identity == "" {
		return nil, message.ErrNotAuthenticated
	}
	if !message.ValidMailboxes[mailbox] {
		return nil, &message.ValidationError{Field: "mailbox", Reason: "unknown mailbox name"}
	}

	var messages []*message.Message
	if err := c.do(ctx, identity, http.MethodGet, c.mailboxURL(mailbox), nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// GetMessage returns one message from the requested partition.
func (c *Client) GetMessage(ctx context.Context, identity string, mailbox message.Mailbox, id string) (*message.Message, error) {
	if identity == "" {
		return nil, message.ErrNotAuthenticated
	}

	msg := &message.Message{}
	if err := c.do(ctx, identity, http.MethodGet, c.messageURL(mailbox, id), nil, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// SendMessage posts the compose fields and returns the created message with
// its server-assigned id and timestamp.
func (c *Client) SendMessage(ctx context.Context, identity string, compose message.ComposeFields) (*message.Message, error) {
	if identity == "" {
		return nil, message.ErrNotAuthenticated
	}
	if err := compose.Validate(); err != nil {
		return nil, err
	}

	msg := &message.Message{}
	if err := c.do(ctx, identity, http.MethodPost, c.baseURL+"/emails", compose, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// UpdateFlags applies a partial flag update to one message.
func (c *Client) UpdateFlags(ctx context.Context, identity string, mailbox message.Mailbox, id string, patch message.FlagPatch) error {
	if identity == "" {
		return message.ErrNotAuthenticated
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	return c.do(ctx, identity, http.MethodPut, c.messageURL(mailbox, id), patch, nil)
}

// do issues one request and decodes the response into out when non-nil.
// Status codes are mapped onto the adapter error taxonomy.
func (c *Client) do(ctx context.Context, identity, method, reqURL string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", message.ErrRemoteUnavailable, err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("%w: %v", message.ErrRemoteUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+identity)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", message.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return message.ErrMessageNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return message.ErrNotAuthenticated
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d", message.ErrRemoteUnavailable, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", message.ErrRemoteUnavailable, err)
	}
	return nil
}
