package message

import (
	"fmt"
	"time"
)

// ReplyTo produces prefilled compose fields for a reply to an existing
// message. It is a pure transformation: recipients become the original
// sender, the subject gains a "Re: " prefix, and the body quotes the
// original under an attribution line.
func ReplyTo(m *Message) ComposeFields {
	return ComposeFields{
		Recipients: m.Sender,
		Subject:    "Re: " + m.Subject,
		Body:       fmt.Sprintf("On %s %s wrote:\n%s\n", m.Timestamp.UTC().Format(time.RFC3339), m.Sender, m.Body),
	}
}
