package message

import "fmt"

// ValidationError reports a compose or request field rejected before any
// remote call was issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks compose fields ahead of a send. No remote call may be
// issued when this returns an error.
func (c ComposeFields) Validate() error {
	if c.Recipients == "" {
		return &ValidationError{Field: "recipients", Reason: "at least one recipient is required"}
	}
	if c.Subject == "" && c.Body == "" {
		return &ValidationError{Field: "subject", Reason: "subject or body is required"}
	}
	return nil
}

// Validate checks that a flag patch changes something and only moves the
// read flag in the allowed direction. Read is monotonic: once set it is
// never cleared through any exposed operation.
func (p FlagPatch) Validate() error {
	if p.Read == nil && p.Archived == nil {
		return &ValidationError{Field: "flags", Reason: "no flags supplied"}
	}
	if p.Read != nil && !*p.Read {
		return &ValidationError{Field: "read", Reason: "read cannot be cleared"}
	}
	return nil
}
