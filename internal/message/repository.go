package message

import (
	"context"
	"errors"
)

// Error types for repository operations.
var (
	// ErrNotAuthenticated means an operation was invoked without a
	// resolved identity. Callers are expected to prevent this.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrMessageNotFound means the id is absent from the requested
	// partition. This is an expected outcome, not a failure.
	ErrMessageNotFound = errors.New("message not found")
	// ErrRemoteUnavailable wraps any transport or service failure from
	// the backing store. Operations are never retried automatically;
	// the caller may re-invoke.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

// Repository defines the mailbox store adapter contract. Every operation is
// scoped to an explicit identity; implementations must never fall back to
// ambient session state.
type Repository interface {
	// ListMailbox returns the mailbox's messages, newest first.
	ListMailbox(ctx context.Context, identity string, mailbox Mailbox) ([]*Message, error)
	// GetMessage returns one message, or ErrMessageNotFound if the id is
	// not in that identity's requested partition.
	GetMessage(ctx context.Context, identity string, mailbox Mailbox, id string) (*Message, error)
	// SendMessage validates the compose fields, writes a new message into
	// the sent partition with a store-assigned id and timestamp, and
	// returns the created message.
	SendMessage(ctx context.Context, identity string, compose ComposeFields) (*Message, error)
	// UpdateFlags applies a partial flag update to one message.
	// Unsupplied flags retain their prior value.
	UpdateFlags(ctx context.Context, identity string, mailbox Mailbox, id string, patch FlagPatch) error
}
