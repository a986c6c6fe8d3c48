// Package message provides types and operations for per-user mailbox storage.
package message

import (
	"time"

	"github.com/mkarlsen/webmail-backend/internal/dynamo"
)

// Mailbox names a partition of a user's messages.
type Mailbox string

const (
	// MailboxInbox holds received messages that have not been archived.
	MailboxInbox Mailbox = "inbox"
	// MailboxSent holds messages the user has sent.
	MailboxSent Mailbox = "sent"
	// MailboxArchive is the view of inbox messages with the archived flag set.
	MailboxArchive Mailbox = "archive"
)

// ValidMailboxes defines the mailbox names a client may request.
var ValidMailboxes = map[Mailbox]bool{
	MailboxInbox:   true,
	MailboxSent:    true,
	MailboxArchive: true,
}

// ParseMailbox validates a mailbox name from an external caller.
func ParseMailbox(s string) (Mailbox, error) {
	mb := Mailbox(s)
	if !ValidMailboxes[mb] {
		return "", &ValidationError{Field: "mailbox", Reason: "unknown mailbox name"}
	}
	return mb, nil
}

// Home returns the partition a message in this mailbox is stored under.
// The archive mailbox is a filtered view of the inbox partition, not a
// partition of its own.
func (m Mailbox) Home() Mailbox {
	if m == MailboxArchive {
		return MailboxInbox
	}
	return m
}

// Message represents a message stored in a user's mailbox partition.
type Message struct {
	// Owner is the identity whose partition holds the message. It is
	// never serialized to clients.
	Owner      string    `json:"-"`
	ID         string    `json:"id"`
	Mailbox    Mailbox   `json:"mailbox"`
	Sender     string    `json:"sender"`
	Recipients string    `json:"recipients"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Timestamp  time.Time `json:"timestamp"`
	Read       bool      `json:"read"`
	Archived   bool      `json:"archived"`
}

// PK returns the DynamoDB partition key for this message's owner.
func (m *Message) PK() string {
	return dynamo.PrefixUser + m.Owner
}

// SK returns the DynamoDB sort key for this message.
func (m *Message) SK() string {
	return PrefixMessage + m.ID
}

// ComposeFields holds the user-supplied fields of an outgoing message.
type ComposeFields struct {
	Recipients string `json:"recipients"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

// FlagPatch is a partial update to a message's mutable flags. Nil fields
// retain their prior value.
type FlagPatch struct {
	Read     *bool `json:"read,omitempty"`
	Archived *bool `json:"archived,omitempty"`
}
