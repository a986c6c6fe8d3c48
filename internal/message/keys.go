package message

import (
	"time"

	"github.com/mkarlsen/webmail-backend/internal/dynamo"
)

// Key prefixes for DynamoDB sort keys.
const (
	PrefixMessage = "MSG#"
	PrefixListing = "MBOX#"
)

// Attribute names for DynamoDB items.
const (
	AttrMessageID  = "messageId"
	AttrOwner      = "owner"
	AttrMailbox    = "mailbox"
	AttrSender     = "sender"
	AttrRecipients = "recipients"
	AttrSubject    = "subject"
	AttrBody       = "body"
	AttrTimestamp  = "sentAt"
	AttrRead       = "read"
	AttrArchived   = "archived"
)

// TimestampLayout is the stored timestamp format. The fractional second is
// fixed width so sort keys stay lexicographically ordered; RFC3339Nano
// drops trailing zeros and would not.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// UserPK returns the partition key for an identity's mailbox partitions.
func UserPK(identity string) string {
	return dynamo.PrefixUser + identity
}

// ListingSK returns the LSI sort key that orders a home partition's messages
// by timestamp. The id suffix breaks ties between identical timestamps.
func ListingSK(home Mailbox, ts time.Time, id string) string {
	return PrefixListing + string(home) + "#TS#" + ts.UTC().Format(TimestampLayout) + "#" + id
}

// ListingPrefix returns the LSI sort key prefix covering one home partition.
func ListingPrefix(home Mailbox) string {
	return PrefixListing + string(home) + "#TS#"
}
