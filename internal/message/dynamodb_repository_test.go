package message

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamoDBClient is a test double for DynamoDB operations.
type mockDynamoDBClient struct {
	getItemFunc    func(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	queryFunc      func(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	putItemFunc    func(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	updateItemFunc func(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

func (m *mockDynamoDBClient) GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getItemFunc != nil {
		return m.getItemFunc(ctx, input, opts...)
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *mockDynamoDBClient) Query(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, input, opts...)
	}
	return &dynamodb.QueryOutput{}, nil
}

func (m *mockDynamoDBClient) PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.putItemFunc != nil {
		return m.putItemFunc(ctx, input, opts...)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamoDBClient) UpdateItem(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if m.updateItemFunc != nil {
		return m.updateItemFunc(ctx, input, opts...)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func messageItem(owner, id string, mailbox Mailbox, ts time.Time, read, archived bool) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrMessageID:  &types.AttributeValueMemberS{Value: id},
		AttrOwner:      &types.AttributeValueMemberS{Value: owner},
		AttrMailbox:    &types.AttributeValueMemberS{Value: string(mailbox)},
		AttrSender:     &types.AttributeValueMemberS{Value: "alice@x.com"},
		AttrRecipients: &types.AttributeValueMemberS{Value: "bob@x.com"},
		AttrSubject:    &types.AttributeValueMemberS{Value: "Hi"},
		AttrBody:       &types.AttributeValueMemberS{Value: "Hello"},
		AttrTimestamp:  &types.AttributeValueMemberS{Value: ts.UTC().Format(TimestampLayout)},
		AttrRead:       &types.AttributeValueMemberBOOL{Value: read},
		AttrArchived:   &types.AttributeValueMemberBOOL{Value: archived},
	}
}

func TestDynamoDBRepository_ListMailbox(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	mock := &mockDynamoDBClient{
		queryFunc: func(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			if aws.ToString(input.IndexName) != "lsi1" {
				t.Errorf("unexpected index: %v", input.IndexName)
			}
			if aws.ToBool(input.ScanIndexForward) {
				t.Error("expected ScanIndexForward=false for newest-first listing")
			}
			if prefix, ok := input.ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS); !ok || prefix.Value != "MBOX#inbox#TS#" {
				t.Errorf("unexpected prefix: %v", input.ExpressionAttributeValues[":prefix"])
			}
			if archived, ok := input.ExpressionAttributeValues[":archived"].(*types.AttributeValueMemberBOOL); !ok || archived.Value {
				t.Errorf("inbox listing must filter archived=false, got %v", input.ExpressionAttributeValues[":archived"])
			}
			return &dynamodb.QueryOutput{
				Items: []map[string]types.AttributeValue{
					messageItem("user-123", "msg-2", MailboxInbox, now.Add(time.Hour), false, false),
					messageItem("user-123", "msg-1", MailboxInbox, now, true, false),
				},
			}, nil
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	messages, err := repo.ListMailbox(ctx, "user-123", MailboxInbox)

	if err != nil {
		t.Fatalf("ListMailbox() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
	if messages[0].ID != "msg-2" || messages[1].ID != "msg-1" {
		t.Errorf("unexpected order: %q, %q", messages[0].ID, messages[1].ID)
	}
	if !messages[0].Timestamp.After(messages[1].Timestamp) {
		t.Error("expected newest-first ordering")
	}
}

func TestDynamoDBRepository_ListMailbox_Archive(t *testing.T) {
	ctx := context.Background()

	mock := &mockDynamoDBClient{
		queryFunc: func(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			// Archive is a filtered view of the inbox home partition.
			if prefix, ok := input.ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS); !ok || prefix.Value != "MBOX#inbox#TS#" {
				t.Errorf("unexpected prefix: %v", input.ExpressionAttributeValues[":prefix"])
			}
			if archived, ok := input.ExpressionAttributeValues[":archived"].(*types.AttributeValueMemberBOOL); !ok || !archived.Value {
				t.Errorf("archive listing must filter archived=true, got %v", input.ExpressionAttributeValues[":archived"])
			}
			return &dynamodb.QueryOutput{}, nil
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	if _, err := repo.ListMailbox(ctx, "user-123", MailboxArchive); err != nil {
		t.Fatalf("ListMailbox() error = %v", err)
	}
}

func TestDynamoDBRepository_ListMailbox_Sent(t *testing.T) {
	ctx := context.Background()

	mock := &mockDynamoDBClient{
		queryFunc: func(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			if input.FilterExpression != nil {
				t.Errorf("sent listing must not filter, got %q", aws.ToString(input.FilterExpression))
			}
			if prefix, ok := input.ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS); !ok || prefix.Value != "MBOX#sent#TS#" {
				t.Errorf("unexpected prefix: %v", input.ExpressionAttributeValues[":prefix"])
			}
			return &dynamodb.QueryOutput{}, nil
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	if _, err := repo.ListMailbox(ctx, "user-123", MailboxSent); err != nil {
		t.Fatalf("ListMailbox() error = %v", err)
	}
}

func TestDynamoDBRepository_ListMailbox_RemoteUnavailable(t *testing.T) {
	ctx := context.Background()

	mock := &mockDynamoDBClient{
		queryFunc: func(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	_, err := repo.ListMailbox(ctx, "user-123", MailboxInbox)

	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Errorf("ListMailbox() error = %v, want %v", err, ErrRemoteUnavailable)
	}
}

func TestDynamoDBRepository_ListMailbox_NoIdentity(t *testing.T) {
	repo := NewDynamoDBRepository(&mockDynamoDBClient{}, "test-table")
	_, err := repo.ListMailbox(context.Background(), "", MailboxInbox)

	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("ListMailbox() error = %v, want %v", err, ErrNotAuthenticated)
	}
}

func TestDynamoDBRepository_GetMessage(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	mock := &mockDynamoDBClient{
		getItemFunc: func(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			if pk, ok := input.Key["pk"].(*types.AttributeValueMemberS); !ok || pk.Value != "USER#user-123" {
				t.Errorf("unexpected pk: %v", input.Key["pk"])
			}
			if sk, ok := input.Key["sk"].(*types.AttributeValueMemberS); !ok || sk.Value != "MSG#msg-1" {
				t.Errorf("unexpected sk: %v", input.Key["sk"])
			}
			return &dynamodb.GetItemOutput{
				Item: messageItem("user-123", "msg-1", MailboxInbox, now, false, false),
			}, nil
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	msg, err := repo.GetMessage(ctx, "user-123", MailboxInbox, "msg-1")

	if err != nil {
		t.Fatalf("GetMessage() error = %v", err)
	}
	if msg.ID != "msg-1" {
		t.Errorf("ID = %q, want %q", msg.ID, "msg-1")
	}
	if msg.Sender != "alice@x.com" {
		t.Errorf("Sender = %q", msg.Sender)
	}
	if !msg.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", msg.Timestamp, now)
	}
}

func TestDynamoDBRepository_GetMessage_NotFound(t *testing.T) {
	ctx := context.Background()

	mock := &mockDynamoDBClient{
		getItemFunc: func(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: nil}, nil
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	_, err := repo.GetMessage(ctx, "user-123", MailboxInbox, "nonexistent")

	if !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("GetMessage() error = %v, want %v", err, ErrMessageNotFound)
	}
}

func TestDynamoDBRepository_GetMessage_WrongPartition(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	// The message exists under this identity, but in the sent partition.
	mock := &mockDynamoDBClient{
		getItemFunc: func(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{
				Item: messageItem("user-123", "msg-1", MailboxSent, now, false, false),
			}, nil
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	_, err := repo.GetMessage(ctx, "user-123", MailboxInbox, "msg-1")

	if !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("GetMessage() error = %v, want %v", err, ErrMessageNotFound)
	}
}

func TestDynamoDBRepository_GetMessage_ArchivedNotInInbox(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	mock := &mockDynamoDBClient{
		getItemFunc: func(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{
				Item: messageItem("user-123", "msg-1", MailboxInbox, now, true, true),
			}, nil
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")

	if _, err := repo.GetMessage(ctx, "user-123", MailboxInbox, "msg-1"); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("inbox GetMessage() error = %v, want %v", err, ErrMessageNotFound)
	}
	if _, err := repo.GetMessage(ctx, "user-123", MailboxArchive, "msg-1"); err != nil {
		t.Errorf("archive GetMessage() error = %v", err)
	}
}

func TestDynamoDBRepository_SendMessage(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	var put map[string]types.AttributeValue
	mock := &mockDynamoDBClient{
		putItemFunc: func(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			put = input.Item
			if aws.ToString(input.ConditionExpression) != "attribute_not_exists(pk)" {
				t.Errorf("unexpected condition: %v", input.ConditionExpression)
			}
			return &dynamodb.PutItemOutput{}, nil
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	repo.nowFunc = func() time.Time { return now }
	repo.newID = func() string { return "msg-new" }

	msg, err := repo.SendMessage(ctx, "user-123", ComposeFields{
		Recipients: "a@x.com",
		Subject:    "Hi",
		Body:       "Hello",
	})

	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msg.ID != "msg-new" {
		t.Errorf("ID = %q", msg.ID)
	}
	if msg.Mailbox != MailboxSent {
		t.Errorf("Mailbox = %q, want %q", msg.Mailbox, MailboxSent)
	}
	if !msg.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", msg.Timestamp, now)
	}
	if msg.Read || msg.Archived {
		t.Errorf("new message must start unread and unarchived, got read=%v archived=%v", msg.Read, msg.Archived)
	}

	if lsi, ok := put["lsi1sk"].(*types.AttributeValueMemberS); !ok || lsi.Value != "MBOX#sent#TS#2024-02-01T09:00:00.000000000Z#msg-new" {
		t.Errorf("unexpected lsi1sk: %v", put["lsi1sk"])
	}
	if read, ok := put[AttrRead].(*types.AttributeValueMemberBOOL); !ok || read.Value {
		t.Errorf("unexpected read attribute: %v", put[AttrRead])
	}
}

func TestDynamoDBRepository_SendMessage_TimestampsAdvance(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	repo := NewDynamoDBRepository(&mockDynamoDBClient{}, "test-table")
	repo.nowFunc = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	first, err := repo.SendMessage(ctx, "user-123", ComposeFields{Recipients: "a@x.com", Subject: "1"})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	second, err := repo.SendMessage(ctx, "user-123", ComposeFields{Recipients: "a@x.com", Subject: "2"})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if !second.Timestamp.After(first.Timestamp) {
		t.Errorf("expected strictly increasing timestamps: %v then %v", first.Timestamp, second.Timestamp)
	}
	if first.ID == second.ID {
		t.Errorf("expected distinct ids, both %q", first.ID)
	}
}

func TestDynamoDBRepository_SendMessage_SubsecondOrdering(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	var keys []string
	mock := &mockDynamoDBClient{
		putItemFunc: func(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			if lsi, ok := input.Item["lsi1sk"].(*types.AttributeValueMemberS); ok {
				keys = append(keys, lsi.Value)
			}
			return &dynamodb.PutItemOutput{}, nil
		},
	}

	// Two sends land within the same second.
	times := []time.Time{base.Add(250 * time.Millisecond), base.Add(750 * time.Millisecond)}
	repo := NewDynamoDBRepository(mock, "test-table")
	repo.nowFunc = func() time.Time {
		ts := times[0]
		times = times[1:]
		return ts
	}

	first, err := repo.SendMessage(ctx, "user-123", ComposeFields{Recipients: "a@x.com", Subject: "1"})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	second, err := repo.SendMessage(ctx, "user-123", ComposeFields{Recipients: "a@x.com", Subject: "2"})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if !second.Timestamp.After(first.Timestamp) {
		t.Errorf("expected strictly increasing timestamps: %v then %v", first.Timestamp, second.Timestamp)
	}
	if len(keys) != 2 || keys[0] >= keys[1] {
		t.Errorf("sort keys must order same-second sends by fraction: %q", keys)
	}
}

func TestMessageTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2024, 2, 1, 9, 0, 0, 123456789, time.UTC)
	msg := &Message{
		Owner:      "user-123",
		ID:         "msg-1",
		Mailbox:    MailboxSent,
		Sender:     "user-123",
		Recipients: "a@x.com",
		Subject:    "Hi",
		Timestamp:  ts,
	}

	got := unmarshalMessage(marshalMessage(msg))
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, ts)
	}
}

func TestDynamoDBRepository_SendMessage_ValidationBeforeRemoteCall(t *testing.T) {
	ctx := context.Background()

	mock := &mockDynamoDBClient{
		putItemFunc: func(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			t.Error("PutItem must not be called for invalid compose fields")
			return &dynamodb.PutItemOutput{}, nil
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	_, err := repo.SendMessage(ctx, "user-123", ComposeFields{})

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("SendMessage() error = %v, want ValidationError", err)
	}
}

func TestDynamoDBRepository_UpdateFlags_PartialUpdate(t *testing.T) {
	ctx := context.Background()
	archived := true

	mock := &mockDynamoDBClient{
		updateItemFunc: func(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			expr := aws.ToString(input.UpdateExpression)
			if expr != "SET #archived = :archived" {
				t.Errorf("unexpected update expression: %q", expr)
			}
			if _, ok := input.ExpressionAttributeValues[":read"]; ok {
				t.Error("read flag must not be written when not supplied")
			}
			if cond := aws.ToString(input.ConditionExpression); cond != "attribute_exists(pk) AND #mailbox = :home AND #archived = :fromArchived" {
				t.Errorf("unexpected condition: %q", cond)
			}
			return &dynamodb.UpdateItemOutput{}, nil
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	if err := repo.UpdateFlags(ctx, "user-123", MailboxInbox, "msg-1", FlagPatch{Archived: &archived}); err != nil {
		t.Fatalf("UpdateFlags() error = %v", err)
	}
}

func TestDynamoDBRepository_UpdateFlags_ConditionPinsView(t *testing.T) {
	ctx := context.Background()
	read := true

	cases := []struct {
		mailbox      Mailbox
		home         string
		fromArchived *bool
	}{
		{MailboxInbox, "inbox", aws.Bool(false)},
		{MailboxArchive, "inbox", aws.Bool(true)},
		{MailboxSent, "sent", nil},
	}

	for _, tc := range cases {
		mock := &mockDynamoDBClient{
			updateItemFunc: func(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
				if home, ok := input.ExpressionAttributeValues[":home"].(*types.AttributeValueMemberS); !ok || home.Value != tc.home {
					t.Errorf("%s: unexpected :home value: %v", tc.mailbox, input.ExpressionAttributeValues[":home"])
				}
				from, ok := input.ExpressionAttributeValues[":fromArchived"].(*types.AttributeValueMemberBOOL)
				if tc.fromArchived == nil {
					if ok {
						t.Errorf("%s: sent view must not condition on the archived flag", tc.mailbox)
					}
				} else if !ok || from.Value != *tc.fromArchived {
					t.Errorf("%s: unexpected :fromArchived value: %v", tc.mailbox, input.ExpressionAttributeValues[":fromArchived"])
				}
				return &dynamodb.UpdateItemOutput{}, nil
			},
		}

		repo := NewDynamoDBRepository(mock, "test-table")
		if err := repo.UpdateFlags(ctx, "user-123", tc.mailbox, "msg-1", FlagPatch{Read: &read}); err != nil {
			t.Fatalf("%s: UpdateFlags() error = %v", tc.mailbox, err)
		}
	}
}

func TestDynamoDBRepository_UpdateFlags_WrongPartition(t *testing.T) {
	ctx := context.Background()
	archived := true

	// The item exists under this identity but is homed in sent, so the
	// mailbox condition rejects the write.
	mock := &mockDynamoDBClient{
		updateItemFunc: func(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	err := repo.UpdateFlags(ctx, "user-123", MailboxInbox, "msg-1", FlagPatch{Archived: &archived})

	if !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("UpdateFlags() error = %v, want %v", err, ErrMessageNotFound)
	}
}

func TestDynamoDBRepository_UpdateFlags_BothFlags(t *testing.T) {
	ctx := context.Background()
	read := true
	archived := false

	mock := &mockDynamoDBClient{
		updateItemFunc: func(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			expr := aws.ToString(input.UpdateExpression)
			if expr != "SET #read = :read, #archived = :archived" {
				t.Errorf("unexpected update expression: %q", expr)
			}
			return &dynamodb.UpdateItemOutput{}, nil
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	if err := repo.UpdateFlags(ctx, "user-123", MailboxInbox, "msg-1", FlagPatch{Read: &read, Archived: &archived}); err != nil {
		t.Fatalf("UpdateFlags() error = %v", err)
	}
}

func TestDynamoDBRepository_UpdateFlags_ReadMonotonic(t *testing.T) {
	ctx := context.Background()
	unread := false

	mock := &mockDynamoDBClient{
		updateItemFunc: func(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			t.Error("UpdateItem must not be called for read=false")
			return &dynamodb.UpdateItemOutput{}, nil
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	err := repo.UpdateFlags(ctx, "user-123", MailboxInbox, "msg-1", FlagPatch{Read: &unread})

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("UpdateFlags() error = %v, want ValidationError", err)
	}
}

func TestDynamoDBRepository_UpdateFlags_NotFound(t *testing.T) {
	ctx := context.Background()
	read := true

	mock := &mockDynamoDBClient{
		updateItemFunc: func(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	err := repo.UpdateFlags(ctx, "user-123", MailboxInbox, "missing", FlagPatch{Read: &read})

	if !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("UpdateFlags() error = %v, want %v", err, ErrMessageNotFound)
	}
}

func TestDynamoDBRepository_UpdateFlags_RemoteUnavailable(t *testing.T) {
	ctx := context.Background()
	read := true

	mock := &mockDynamoDBClient{
		updateItemFunc: func(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			return nil, errors.New("connection reset")
		},
	}

	repo := NewDynamoDBRepository(mock, "test-table")
	err := repo.UpdateFlags(ctx, "user-123", MailboxInbox, "msg-1", FlagPatch{Read: &read})

	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Errorf("UpdateFlags() error = %v, want %v", err, ErrRemoteUnavailable)
	}
}
