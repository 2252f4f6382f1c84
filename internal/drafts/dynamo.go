package drafts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// dynamoRecord is the table item. The draft itself is kept as its JSON
// encoding so every backend detects corruption the same way.
type dynamoRecord struct {
	DraftKey  string `dynamodbav:"draftKey"`
	FlowKey   string `dynamodbav:"flowKey"`
	Payload   string `dynamodbav:"payload"`
	UpdatedAt string `dynamodbav:"updatedAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt,omitempty"`
}

// DynamoStore keeps drafts in a DynamoDB table keyed by draftKey, with the
// table's TTL attribute set to expiresAt.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	logger    *logging.Logger
	now       func() time.Time
}

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName string, ttl time.Duration, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("drafts: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("drafts: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{client: client, tableName: tableName, ttl: ttl, logger: logger, now: time.Now}
}

func (s *DynamoStore) Load(ctx context.Context, key string) (*Draft, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("drafts: dynamodb get: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var rec dynamoRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	// DynamoDB removes expired items lazily.
	if rec.ExpiresAt > 0 && rec.ExpiresAt <= s.now().Unix() {
		return nil, ErrNotFound
	}
	return decode([]byte(rec.Payload))
}

func (s *DynamoStore) Save(ctx context.Context, key string, d *Draft) error {
	data, err := encode(d)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	rec := dynamoRecord{
		DraftKey:  key,
		FlowKey:   d.FlowKey,
		Payload:   string(data),
		UpdatedAt: now.Format(time.RFC3339),
	}
	if s.ttl > 0 {
		rec.ExpiresAt = now.Add(s.ttl).Unix()
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("drafts: marshal dynamodb item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("drafts: dynamodb put: %w", err)
	}
	return nil
}

func (s *DynamoStore) Clear(ctx context.Context, key string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(key),
	}); err != nil {
		return fmt.Errorf("drafts: dynamodb delete: %w", err)
	}
	s.logger.Debug("draft cleared", "table", s.tableName, "draft_key", key)
	return nil
}

func (s *DynamoStore) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"draftKey": &types.AttributeValueMemberS{Value: key},
	}
}

// DynamoSubmitLock serializes submissions across replicas with a conditional
// put on the drafts table. Lock items live beside the drafts under their own
// key prefix and carry the same expiresAt TTL attribute.
type DynamoSubmitLock struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// NewDynamoSubmitLock builds a lock whose entries expire after ttl so a
// crashed holder cannot block a session forever.
func NewDynamoSubmitLock(client dynamoAPI, tableName string, ttl time.Duration) *DynamoSubmitLock {
	if client == nil {
		panic("drafts: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("drafts: table name cannot be empty")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DynamoSubmitLock{client: client, tableName: tableName, ttl: ttl, now: time.Now}
}

// Acquire claims the submit lock for key. It returns ErrSubmitInProgress
// while another unexpired holder owns it.
func (l *DynamoSubmitLock) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	now := l.now().Unix()
	lockKey := lockKeyPrefix + key
	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.tableName),
		Item: map[string]types.AttributeValue{
			"draftKey":  &types.AttributeValueMemberS{Value: lockKey},
			"token":     &types.AttributeValueMemberS{Value: token},
			"expiresAt": &types.AttributeValueMemberN{Value: strconv.FormatInt(now+int64(l.ttl/time.Second), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(draftKey) OR expiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
		},
	})
	var held *types.ConditionalCheckFailedException
	if errors.As(err, &held) {
		return nil, ErrSubmitInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("drafts: acquire submit lock: %w", err)
	}
	return func() {
		// Only the holder's token may delete the item.
		_, _ = l.client.DeleteItem(context.Background(), &dynamodb.DeleteItemInput{
			TableName:           aws.String(l.tableName),
			Key:                 map[string]types.AttributeValue{"draftKey": &types.AttributeValueMemberS{Value: lockKey}},
			ConditionExpression: aws.String("#token = :token"),
			ExpressionAttributeNames: map[string]string{
				"#token": "token",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":token": &types.AttributeValueMemberS{Value: token},
			},
		})
	}, nil
}
