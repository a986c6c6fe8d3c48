// Package view implements the client view-model over the mailbox store
// adapter. It owns the mailbox and message selection slots, the compose
// fields, and the rules keeping listings consistent when responses resolve
// out of order.
package view

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mkarlsen/webmail-backend/internal/message"
	"github.com/mkarlsen/webmail-backend/internal/session"
)

// slot holds the applied listing for one mailbox plus the sequence gate
// protecting it. Responses carrying a sequence number older than the last
// applied one are discarded, so a stale reply can never overwrite a newer
// listing.
type slot struct {
	messages   []*message.Message
	appliedSeq uint64
}

// Model is the view-model for one client session. All exported methods are
// safe for concurrent use; remote calls run outside the state lock so
// listings for different mailboxes may load in parallel.
type Model struct {
	store    message.Repository
	provider session.Provider

	mu       sync.Mutex
	nextSeq  uint64
	slots    map[message.Mailbox]*slot
	mailbox  message.Mailbox
	selected *message.Message
	compose  message.ComposeFields
}

// NewModel creates a Model starting on the inbox. The model resets itself
// whenever the provider reports an identity change.
func NewModel(store message.Repository, provider session.Provider) *Model {
	m := &Model{
		store:    store,
		provider: provider,
		slots:    make(map[message.Mailbox]*slot),
		mailbox:  message.MailboxInbox,
	}
	provider.Subscribe(func(session.Identity) {
		m.reset()
	})
	return m
}

// reset drops all cached listings, the selection, and the compose fields.
func (m *Model) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = make(map[message.Mailbox]*slot)
	m.mailbox = message.MailboxInbox
	m.selected = nil
	m.compose = message.ComposeFields{}
}

// identity resolves the current identity or fails the operation.
func (m *Model) identity() (string, error) {
	id, ok := m.provider.CurrentIdentity()
	if !ok {
		return "", message.ErrNotAuthenticated
	}
	return string(id), nil
}

// begin issues the next sequence number for a load.
func (m *Model) begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSeq++
	return m.nextSeq
}

// apply installs a completed listing unless a newer one already landed in
// that slot.
func (m *Model) apply(mailbox message.Mailbox, seq uint64, messages []*message.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.slots[mailbox]
	if s == nil {
		s = &slot{}
		m.slots[mailbox] = s
	}
	if seq < s.appliedSeq {
		return
	}
	s.appliedSeq = seq
	s.messages = messages
}

// load fetches one mailbox listing and applies it through the sequence gate.
func (m *Model) load(ctx context.Context, identity string, mailbox message.Mailbox) error {
	seq := m.begin()
	messages, err := m.store.ListMailbox(ctx, identity, mailbox)
	if err != nil {
		return err
	}
	m.apply(mailbox, seq, messages)
	return nil
}

// SelectMailbox switches the visible mailbox, clears the message selection,
// and refreshes the mailbox's listing. A listing still in flight for a
// previously selected mailbox keeps loading into its own slot and cannot
// overwrite this one.
func (m *Model) SelectMailbox(ctx context.Context, mailbox message.Mailbox) error {
	if !message.ValidMailboxes[mailbox] {
		return &message.ValidationError{Field: "mailbox", Reason: "unknown mailbox name"}
	}
	identity, err := m.identity()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.mailbox = mailbox
	m.selected = nil
	m.mu.Unlock()

	return m.load(ctx, identity, mailbox)
}

// Refresh reloads the currently visible mailbox.
func (m *Model) Refresh(ctx context.Context) error {
	identity, err := m.identity()
	if err != nil {
		return err
	}
	m.mu.Lock()
	mailbox := m.mailbox
	m.mu.Unlock()
	return m.load(ctx, identity, mailbox)
}

// Preload fetches every mailbox listing in parallel. Each result passes
// through the same sequence gate as a plain load.
func (m *Model) Preload(ctx context.Context) error {
	identity, err := m.identity()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for mailbox := range message.ValidMailboxes {
		g.Go(func() error {
			return m.load(ctx, identity, mailbox)
		})
	}
	return g.Wait()
}

// Mailbox returns the currently visible mailbox.
func (m *Model) Mailbox() message.Mailbox {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mailbox
}

// Listing returns a snapshot of the applied listing for the currently
// visible mailbox. The snapshot belongs to the caller; later flag patches
// never touch it.
func (m *Model) Listing() []*message.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.slots[m.mailbox]
	if s == nil || s.messages == nil {
		return nil
	}
	listing := make([]*message.Message, len(s.messages))
	for i, msg := range s.messages {
		copied := *msg
		listing[i] = &copied
	}
	return listing
}

// OpenMessage fetches one message from the visible mailbox and selects it.
func (m *Model) OpenMessage(ctx context.Context, id string) (*message.Message, error) {
	identity, err := m.identity()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	mailbox := m.mailbox
	m.mu.Unlock()

	msg, err := m.store.GetMessage(ctx, identity, mailbox, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.selected = msg
	m.mu.Unlock()
	return msg, nil
}

// Selected returns the selected message, if any.
func (m *Model) Selected() *message.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// MarkRead sets the read flag on the selected message. The listing is
// patched locally rather than reloaded; only archive transitions trigger a
// refresh.
func (m *Model) MarkRead(ctx context.Context) error {
	identity, err := m.identity()
	if err != nil {
		return err
	}
	m.mu.Lock()
	mailbox := m.mailbox
	selected := m.selected
	m.mu.Unlock()
	if selected == nil {
		return &message.ValidationError{Field: "message", Reason: "no message selected"}
	}

	read := true
	if err := m.store.UpdateFlags(ctx, identity, mailbox, selected.ID, message.FlagPatch{Read: &read}); err != nil {
		return err
	}

	// Replace rather than mutate, so pointers handed out earlier stay
	// stable snapshots.
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected != nil && m.selected.ID == selected.ID {
		updated := *m.selected
		updated.Read = true
		m.selected = &updated
	}
	if s := m.slots[mailbox]; s != nil {
		for i, msg := range s.messages {
			if msg.ID == selected.ID {
				updated := *msg
				updated.Read = true
				s.messages[i] = &updated
			}
		}
	}
	return nil
}

// SetArchived toggles the archived flag on the selected message and reloads
// the visible mailbox, since the message just left or re-entered it.
func (m *Model) SetArchived(ctx context.Context, archived bool) error {
	identity, err := m.identity()
	if err != nil {
		return err
	}
	m.mu.Lock()
	mailbox := m.mailbox
	selected := m.selected
	m.mu.Unlock()
	if selected == nil {
		return &message.ValidationError{Field: "message", Reason: "no message selected"}
	}

	if err := m.store.UpdateFlags(ctx, identity, mailbox, selected.ID, message.FlagPatch{Archived: &archived}); err != nil {
		return err
	}

	m.mu.Lock()
	m.selected = nil
	m.mu.Unlock()
	return m.load(ctx, identity, mailbox)
}

// Reply prefills the compose fields from the selected message and returns
// the view to compose mode.
func (m *Model) Reply() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == nil {
		return &message.ValidationError{Field: "message", Reason: "no message selected"}
	}
	m.compose = message.ReplyTo(m.selected)
	m.selected = nil
	return nil
}

// Compose clears the message selection so the compose form is visible.
func (m *Model) Compose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = nil
}

// SetCompose replaces the compose fields.
func (m *Model) SetCompose(fields message.ComposeFields) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compose = fields
}

// ComposeFields returns the current compose fields.
func (m *Model) ComposeFields() message.ComposeFields {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.compose
}

// Send submits the compose fields. On success the compose form resets and
// the sent listing refreshes. A refresh failure is reported, but the message
// is already durably created; the returned message is non-nil whenever the
// send itself succeeded.
func (m *Model) Send(ctx context.Context) (*message.Message, error) {
	identity, err := m.identity()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	compose := m.compose
	m.mu.Unlock()

	msg, err := m.store.SendMessage(ctx, identity, compose)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.compose = message.ComposeFields{}
	m.mu.Unlock()

	if err := m.load(ctx, identity, message.MailboxSent); err != nil {
		return msg, err
	}
	return msg, nil
}
