package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/mkarlsen/webmail-backend/internal/dynamo"
)

// DynamoDBClient defines the interface for DynamoDB operations.
type DynamoDBClient interface {
	GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoDBRepository implements Repository using a single DynamoDB table.
// Messages live under pk USER#{identity}; the lsi1 sort key orders each home
// partition by timestamp so listings come back newest first.
type DynamoDBRepository struct {
	client    DynamoDBClient
	tableName string
	nowFunc   func() time.Time
	newID     func() string
}

// NewDynamoDBRepository creates a new DynamoDBRepository.
func NewDynamoDBRepository(client DynamoDBClient, tableName string) *DynamoDBRepository {
	return &DynamoDBRepository{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
		newID:     uuid.NewString,
	}
}

// ListMailbox returns the mailbox's messages, newest first. The inbox and
// archive mailboxes share the inbox home partition and are split by the
// archived flag; the sent listing ignores the flag.
func (r *DynamoDBRepository) ListMailbox(ctx context.Context, identity string, mailbox Mailbox) ([]*Message, error) {
	if identity == "" {
		return nil, ErrNotAuthenticated
	}
	if !ValidMailboxes[mailbox] {
		return nil, &ValidationError{Field: "mailbox", Reason: "unknown mailbox name"}
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(dynamo.IndexLSI1),
		KeyConditionExpression: aws.String("pk = :pk AND begins_with(lsi1sk, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: UserPK(identity)},
			":prefix": &types.AttributeValueMemberS{Value: ListingPrefix(mailbox.Home())},
		},
		ScanIndexForward: aws.Bool(false),
	}

	switch mailbox {
	case MailboxInbox:
		input.FilterExpression = aws.String("#archived = :archived")
		input.ExpressionAttributeNames = map[string]string{"#archived": AttrArchived}
		input.ExpressionAttributeValues[":archived"] = &types.AttributeValueMemberBOOL{Value: false}
	case MailboxArchive:
		input.FilterExpression = aws.String("#archived = :archived")
		input.ExpressionAttributeNames = map[string]string{"#archived": AttrArchived}
		input.ExpressionAttributeValues[":archived"] = &types.AttributeValueMemberBOOL{Value: true}
	}

	output, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	messages := make([]*Message, len(output.Items))
	for i, item := range output.Items {
		messages[i] = unmarshalMessage(item)
	}
	return messages, nil
}

// GetMessage returns one message from the requested partition.
func (r *DynamoDBRepository) GetMessage(ctx context.Context, identity string, mailbox Mailbox, id string) (*Message, error) {
	if identity == "" {
		return nil, ErrNotAuthenticated
	}

	output, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			dynamo.AttrPK: &types.AttributeValueMemberS{Value: UserPK(identity)},
			dynamo.AttrSK: &types.AttributeValueMemberS{Value: PrefixMessage + id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if output.Item == nil {
		return nil, ErrMessageNotFound
	}

	msg := unmarshalMessage(output.Item)
	if !inMailbox(msg, mailbox) {
		// Present under this identity, but not in the requested
		// partition. Indistinguishable from absent to the caller.
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

// SendMessage writes a new message into the sent partition with a
// store-assigned id and timestamp.
func (r *DynamoDBRepository) SendMessage(ctx context.Context, identity string, compose ComposeFields) (*Message, error) {
	if identity == "" {
		return nil, ErrNotAuthenticated
	}
	if err := compose.Validate(); err != nil {
		return nil, err
	}

	msg := &Message{
		Owner:      identity,
		ID:         r.newID(),
		Mailbox:    MailboxSent,
		Sender:     identity,
		Recipients: compose.Recipients,
		Subject:    compose.Subject,
		Body:       compose.Body,
		Timestamp:  r.nowFunc().UTC(),
	}

	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                marshalMessage(msg),
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	return msg, nil
}

// UpdateFlags applies a partial flag update to one message. Only the
// supplied flags are written; the listing key never changes because a
// message's home partition is fixed at creation. The write is conditioned
// on the message currently belonging to the requested mailbox view, so an
// id homed elsewhere reports ErrMessageNotFound rather than updating.
func (r *DynamoDBRepository) UpdateFlags(ctx context.Context, identity string, mailbox Mailbox, id string, patch FlagPatch) error {
	if identity == "" {
		return ErrNotAuthenticated
	}
	if !ValidMailboxes[mailbox] {
		return &ValidationError{Field: "mailbox", Reason: "unknown mailbox name"}
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	updateExpr := "SET"
	exprAttrNames := map[string]string{"#mailbox": AttrMailbox}
	exprAttrValues := map[string]types.AttributeValue{
		":home": &types.AttributeValueMemberS{Value: string(mailbox.Home())},
	}

	if patch.Read != nil {
		updateExpr += " #read = :read"
		exprAttrNames["#read"] = AttrRead
		exprAttrValues[":read"] = &types.AttributeValueMemberBOOL{Value: *patch.Read}
	}
	if patch.Archived != nil {
		if patch.Read != nil {
			updateExpr += ","
		}
		updateExpr += " #archived = :archived"
		exprAttrNames["#archived"] = AttrArchived
		exprAttrValues[":archived"] = &types.AttributeValueMemberBOOL{Value: *patch.Archived}
	}

	// Inbox and archive share the inbox home partition; the archived flag
	// picks the view the caller addressed.
	condition := "attribute_exists(pk) AND #mailbox = :home"
	if mailbox != MailboxSent {
		condition += " AND #archived = :fromArchived"
		exprAttrNames["#archived"] = AttrArchived
		exprAttrValues[":fromArchived"] = &types.AttributeValueMemberBOOL{Value: mailbox == MailboxArchive}
	}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			dynamo.AttrPK: &types.AttributeValueMemberS{Value: UserPK(identity)},
			dynamo.AttrSK: &types.AttributeValueMemberS{Value: PrefixMessage + id},
		},
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeNames:  exprAttrNames,
		ExpressionAttributeValues: exprAttrValues,
		ConditionExpression:       aws.String(condition),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

// inMailbox reports whether a stored message belongs to the requested
// mailbox view.
func inMailbox(m *Message, mailbox Mailbox) bool {
	switch mailbox {
	case MailboxInbox:
		return m.Mailbox == MailboxInbox && !m.Archived
	case MailboxArchive:
		return m.Mailbox == MailboxInbox && m.Archived
	case MailboxSent:
		return m.Mailbox == MailboxSent
	}
	return false
}

// marshalMessage converts a Message to DynamoDB attribute values.
func marshalMessage(m *Message) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamo.AttrPK:     &types.AttributeValueMemberS{Value: m.PK()},
		dynamo.AttrSK:     &types.AttributeValueMemberS{Value: m.SK()},
		dynamo.AttrLSI1SK: &types.AttributeValueMemberS{Value: ListingSK(m.Mailbox.Home(), m.Timestamp, m.ID)},
		AttrMessageID:     &types.AttributeValueMemberS{Value: m.ID},
		AttrOwner:         &types.AttributeValueMemberS{Value: m.Owner},
		AttrMailbox:       &types.AttributeValueMemberS{Value: string(m.Mailbox)},
		AttrSender:        &types.AttributeValueMemberS{Value: m.Sender},
		AttrRecipients:    &types.AttributeValueMemberS{Value: m.Recipients},
		AttrSubject:       &types.AttributeValueMemberS{Value: m.Subject},
		AttrBody:          &types.AttributeValueMemberS{Value: m.Body},
		AttrTimestamp:     &types.AttributeValueMemberS{Value: m.Timestamp.UTC().Format(TimestampLayout)},
		AttrRead:          &types.AttributeValueMemberBOOL{Value: m.Read},
		AttrArchived:      &types.AttributeValueMemberBOOL{Value: m.Archived},
	}
}

// unmarshalMessage converts DynamoDB attribute values to a Message.
func unmarshalMessage(item map[string]types.AttributeValue) *Message {
	msg := &Message{}

	if v, ok := item[AttrMessageID].(*types.AttributeValueMemberS); ok {
		msg.ID = v.Value
	}
	if v, ok := item[AttrOwner].(*types.AttributeValueMemberS); ok {
		msg.Owner = v.Value
	}
	if v, ok := item[AttrMailbox].(*types.AttributeValueMemberS); ok {
		msg.Mailbox = Mailbox(v.Value)
	}
	if v, ok := item[AttrSender].(*types.AttributeValueMemberS); ok {
		msg.Sender = v.Value
	}
	if v, ok := item[AttrRecipients].(*types.AttributeValueMemberS); ok {
		msg.Recipients = v.Value
	}
	if v, ok := item[AttrSubject].(*types.AttributeValueMemberS); ok {
		msg.Subject = v.Value
	}
	if v, ok := item[AttrBody].(*types.AttributeValueMemberS); ok {
		msg.Body = v.Value
	}
	if v, ok := item[AttrTimestamp].(*types.AttributeValueMemberS); ok {
		if t, err := time.Parse(TimestampLayout, v.Value); err == nil {
			msg.Timestamp = t
		}
	}
	if v, ok := item[AttrRead].(*types.AttributeValueMemberBOOL); ok {
		msg.Read = v.Value
	}
	if v, ok := item[AttrArchived].(*types.AttributeValueMemberBOOL); ok {
		msg.Archived = v.Value
	}

	return msg
}
