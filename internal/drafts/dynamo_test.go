package drafts

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

type mockDynamo struct {
	items     map[string]map[string]types.AttributeValue
	putInput  *dynamodb.PutItemInput
	getErr    error
	deleteHit int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(key map[string]types.AttributeValue) string {
	if v, ok := key["draftKey"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func numberOf(av types.AttributeValue) int64 {
	if v, ok := av.(*types.AttributeValueMemberN); ok {
		n, _ := strconv.ParseInt(v.Value, 10, 64)
		return n
	}
	return 0
}

// conditionHolds evaluates the two condition expressions the lock issues.
func (m *mockDynamo) conditionHolds(key string, cond *string, values map[string]types.AttributeValue) bool {
	if cond == nil {
		return true
	}
	existing, ok := m.items[key]
	switch *cond {
	case "attribute_not_exists(draftKey) OR expiresAt < :now":
		return !ok || numberOf(existing["expiresAt"]) < numberOf(values[":now"])
	case "#token = :token":
		if !ok {
			return false
		}
		have, _ := existing["token"].(*types.AttributeValueMemberS)
		want, _ := values[":token"].(*types.AttributeValueMemberS)
		return have != nil && want != nil && have.Value == want.Value
	}
	return false
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if !m.conditionHolds(keyOf(in.Item), in.ConditionExpression, in.ExpressionAttributeValues) {
		return nil, conditionFailed()
	}
	m.putInput = in
	m.items[keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &dynamodb.GetItemOutput{Item: m.items[keyOf(in.Key)]}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if !m.conditionHolds(keyOf(in.Key), in.ConditionExpression, in.ExpressionAttributeValues) {
		return nil, conditionFailed()
	}
	m.deleteHit++
	delete(m.items, keyOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoStoreContract(t *testing.T) {
	runStoreContract(t, NewDynamoStore(newMockDynamo(), "intake-drafts", time.Hour, logging.Discard()))
}

func TestDynamoStoreSetsTTL(t *testing.T) {
	mock := newMockDynamo()
	store := NewDynamoStore(mock, "intake-drafts", 24*time.Hour, logging.Discard())
	if err := store.Save(context.Background(), "k", sampleDraft()); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if mock.putInput == nil {
		t.Fatalf("expected PutItem to be called")
	}
	var rec dynamoRecord
	if err := attributevalue.UnmarshalMap(mock.putInput.Item, &rec); err != nil {
		t.Fatalf("failed to unmarshal stored draft: %v", err)
	}
	if rec.FlowKey != "new-patient-flow" {
		t.Fatalf("expected flow key attribute, got %q", rec.FlowKey)
	}
	if rec.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("expected TTL in the future, got %d", rec.ExpiresAt)
	}
}

func TestDynamoStoreNoTTLWhenRetentionDisabled(t *testing.T) {
	mock := newMockDynamo()
	store := NewDynamoStore(mock, "intake-drafts", 0, logging.Discard())
	if err := store.Save(context.Background(), "k", sampleDraft()); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if _, ok := mock.putInput.Item["expiresAt"]; ok {
		t.Fatalf("expiresAt must be omitted when retention is disabled")
	}
}

func TestDynamoStoreIgnoresExpiredItems(t *testing.T) {
	mock := newMockDynamo()
	store := NewDynamoStore(mock, "intake-drafts", time.Hour, logging.Discard())
	now := time.Now()
	store.now = func() time.Time { return now }
	if err := store.Save(context.Background(), "k", sampleDraft()); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	now = now.Add(2 * time.Hour)
	if _, err := store.Load(context.Background(), "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired draft to be absent, got %v", err)
	}
}

func TestDynamoStoreCorruptPayload(t *testing.T) {
	mock := newMockDynamo()
	mock.items["k"] = map[string]types.AttributeValue{
		"draftKey": &types.AttributeValueMemberS{Value: "k"},
		"payload":  &types.AttributeValueMemberS{Value: "{broken"},
	}
	store := NewDynamoStore(mock, "intake-drafts", 0, logging.Discard())
	if _, err := store.Load(context.Background(), "k"); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestDynamoStoreGetError(t *testing.T) {
	mock := newMockDynamo()
	mock.getErr = errors.New("throttled")
	store := NewDynamoStore(mock, "intake-drafts", 0, logging.Discard())
	_, err := store.Load(context.Background(), "k")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestDynamoSubmitLock(t *testing.T) {
	mock := newMockDynamo()
	lock := NewDynamoSubmitLock(mock, "intake-drafts", time.Minute)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "new-patient-flow:s1")
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if _, ok := mock.items[lockKeyPrefix+"new-patient-flow:s1"]; !ok {
		t.Fatalf("expected lock item beside the drafts")
	}

	// A second replica sharing the table is refused.
	other := NewDynamoSubmitLock(mock, "intake-drafts", time.Minute)
	if _, err := other.Acquire(ctx, "new-patient-flow:s1"); !errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("expected ErrSubmitInProgress, got %v", err)
	}
	second, err := other.Acquire(ctx, "new-patient-flow:s2")
	if err != nil {
		t.Fatalf("other sessions must not contend: %v", err)
	}
	second()

	release()
	again, err := other.Acquire(ctx, "new-patient-flow:s1")
	if err != nil {
		t.Fatalf("expected lock to be free after release, got %v", err)
	}

	// A stale release from the first holder must not free the new claim.
	release()
	if _, err := lock.Acquire(ctx, "new-patient-flow:s1"); !errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("stale release freed the lock: %v", err)
	}
	again()
}

func TestDynamoSubmitLockExpires(t *testing.T) {
	mock := newMockDynamo()
	lock := NewDynamoSubmitLock(mock, "intake-drafts", 30*time.Second)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	lock.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := lock.Acquire(ctx, "k"); err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if _, err := lock.Acquire(ctx, "k"); !errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("expected held lock, got %v", err)
	}
	now = now.Add(time.Minute)
	if _, err := lock.Acquire(ctx, "k"); err != nil {
		t.Fatalf("expected abandoned lock to be reclaimable, got %v", err)
	}
}

func TestDynamoSubmitLockBackendError(t *testing.T) {
	lock := NewDynamoSubmitLock(failingPut{newMockDynamo()}, "intake-drafts", time.Minute)
	_, err := lock.Acquire(context.Background(), "k")
	if err == nil || errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

type failingPut struct{ *mockDynamo }

func (failingPut) PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return nil, errors.New("throttled")
}
