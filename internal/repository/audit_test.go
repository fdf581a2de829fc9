package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"talksense/internal/domain"
)

type fakeDynamo struct {
	putErr       error
	putCalls     int
	lastPutInput *dynamodb.PutItemInput
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putCalls++
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "test-table")
	require.NoError(t, err)
	return c
}

func sampleRecord() domain.AuditRecord {
	return domain.AuditRecord{
		RequestID:  "req-1",
		Outcome:    "ok",
		Provider:   "gemini",
		Model:      "gemini-3-flash-preview",
		ChatChars:  1234,
		DurationMs: 2500,
		CreatedAt:  "2026-03-01T12:00:00Z",
		TTL:        1775044800,
	}
}

func strValue(t *testing.T, item map[string]types.AttributeValue, key string) string {
	t.Helper()
	v, ok := item[key].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %q is not a string", key)
	return v.Value
}

func numValue(t *testing.T, item map[string]types.AttributeValue, key string) string {
	t.Helper()
	v, ok := item[key].(*types.AttributeValueMemberN)
	require.True(t, ok, "attribute %q is not a number", key)
	return v.Value
}

func TestRecordAnalysis_HappyPath(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	err := c.RecordAnalysis(context.Background(), sampleRecord())
	require.NoError(t, err)
	require.Equal(t, 1, db.putCalls)

	in := db.lastPutInput
	require.Equal(t, "test-table", *in.TableName)
	require.Equal(t, "attribute_not_exists(PK) AND attribute_not_exists(SK)", *in.ConditionExpression)

	item := in.Item
	require.Equal(t, "REQ#req-1", strValue(t, item, "PK"))
	require.Equal(t, "AUDIT#2026-03-01T12:00:00Z", strValue(t, item, "SK"))
	require.Equal(t, "req-1", strValue(t, item, "requestId"))
	require.Equal(t, "ok", strValue(t, item, "outcome"))
	require.Equal(t, "gemini", strValue(t, item, "provider"))
	require.Equal(t, "gemini-3-flash-preview", strValue(t, item, "model"))
	require.Equal(t, "1234", numValue(t, item, "chatChars"))
	require.Equal(t, "2500", numValue(t, item, "durationMs"))
	require.Equal(t, "2026-03-01T12:00:00Z", strValue(t, item, "createdAt"))
	require.Equal(t, "1775044800", numValue(t, item, "ttl"))
}

func TestRecordAnalysis_ItemCarriesNoContent(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	require.NoError(t, c.RecordAnalysis(context.Background(), sampleRecord()))

	keys := make([]string, 0, len(db.lastPutInput.Item))
	for k := range db.lastPutInput.Item {
		keys = append(keys, k)
	}
	require.ElementsMatch(t, []string{
		"PK", "SK", "requestId", "outcome", "provider", "model", "chatChars", "durationMs", "createdAt", "ttl",
	}, keys)
}

func TestRecordAnalysis_DynamoError(t *testing.T) {
	db := &fakeDynamo{putErr: errors.New("ProvisionedThroughputExceededException")}
	c := mustNewClient(t, db)
	err := c.RecordAnalysis(context.Background(), sampleRecord())
	require.Error(t, err)
	require.Contains(t, err.Error(), "RecordAnalysis")
	require.ErrorContains(t, err, "ProvisionedThroughputExceededException")
}

func TestRecordAnalysis_MissingRequestID(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	rec := sampleRecord()
	rec.RequestID = " "
	err := c.RecordAnalysis(context.Background(), rec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
	require.Zero(t, db.putCalls)
}

func TestRecordAnalysis_MissingCreatedAt(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	rec := sampleRecord()
	rec.CreatedAt = ""
	err := c.RecordAnalysis(context.Background(), rec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
	require.Zero(t, db.putCalls)
}

func TestRequestPK(t *testing.T) {
	require.Equal(t, "REQ#abc", requestPK("abc"))
}

func TestAuditSK(t *testing.T) {
	require.Equal(t, "AUDIT#2026-02-25T10:00:00Z", auditSK("2026-02-25T10:00:00Z"))
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil, "test-table")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestNew_EmptyTableName(t *testing.T) {
	_, err := New(&fakeDynamo{}, " ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be empty")
}
