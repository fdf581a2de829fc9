package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"talksense/internal/domain"
)

const skPrefixAudit = "AUDIT#"

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client writes analysis audit records to a DynamoDB table.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// requestPK returns the DynamoDB partition key for an analyze request.
func requestPK(requestID string) string {
	return "REQ#" + requestID
}

// auditSK returns the sort key for an audit record created at createdAt.
func auditSK(createdAt string) string {
	return skPrefixAudit + createdAt
}

// RecordAnalysis persists one audit record. A record is written at most once
// per request id and timestamp.
func (c *Client) RecordAnalysis(ctx context.Context, rec domain.AuditRecord) error {
	if strings.TrimSpace(rec.RequestID) == "" {
		return errors.New("repository: RecordAnalysis: request id is required")
	}
	if rec.CreatedAt == "" {
		return errors.New("repository: RecordAnalysis: created at is required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                auditItem(rec),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordAnalysis: %w", err)
	}
	return nil
}

func auditItem(rec domain.AuditRecord) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: requestPK(rec.RequestID)},
		"SK":         &types.AttributeValueMemberS{Value: auditSK(rec.CreatedAt)},
		"requestId":  &types.AttributeValueMemberS{Value: rec.RequestID},
		"outcome":    &types.AttributeValueMemberS{Value: rec.Outcome},
		"provider":   &types.AttributeValueMemberS{Value: rec.Provider},
		"model":      &types.AttributeValueMemberS{Value: rec.Model},
		"chatChars":  &types.AttributeValueMemberN{Value: strconv.Itoa(rec.ChatChars)},
		"durationMs": &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.DurationMs, 10)},
		"createdAt":  &types.AttributeValueMemberS{Value: rec.CreatedAt},
		"ttl":        &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.TTL, 10)},
	}
}
