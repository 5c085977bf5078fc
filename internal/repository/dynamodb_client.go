package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"portfolio-assistant/internal/domain"
)

const (
	pkPrefixDay        = "DAY#"
	skPrefixExchange   = "EXCH#"
	defaultTTLDuration = 30 * 24 * time.Hour
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client appends chat exchanges to a DynamoDB table. Items are grouped by UTC
// day and ordered by time within the day.
type Client struct {
	api       dynamodbAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// New creates a new repository Client. A non-positive ttl selects 30 days.
func New(api dynamodbAPI, tableName string, ttl time.Duration) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	if ttl <= 0 {
		ttl = defaultTTLDuration
	}
	return &Client{api: api, tableName: tableName, ttl: ttl, now: time.Now}, nil
}

// dayPK returns the partition key for the UTC day of ts.
func dayPK(ts time.Time) string {
	return pkPrefixDay + ts.UTC().Format(time.DateOnly)
}

// exchangeSK returns the sort key for an exchange.
func exchangeSK(ts time.Time, id string) string {
	return skPrefixExchange + ts.UTC().Format(time.RFC3339Nano) + "#" + id
}

// RecordExchange writes one exchange. Each exchange is written at most once.
func (c *Client) RecordExchange(ctx context.Context, ex domain.Exchange) error {
	if strings.TrimSpace(ex.ID) == "" {
		return errors.New("repository: RecordExchange: exchange ID is required")
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = c.now()
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                c.exchangeItem(ex),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordExchange: %w", err)
	}
	return nil
}

func (c *Client) exchangeItem(ex domain.Exchange) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":            &types.AttributeValueMemberS{Value: dayPK(ex.CreatedAt)},
		"SK":            &types.AttributeValueMemberS{Value: exchangeSK(ex.CreatedAt, ex.ID)},
		"exchangeId":    &types.AttributeValueMemberS{Value: ex.ID},
		"correlationId": &types.AttributeValueMemberS{Value: ex.CorrelationID},
		"message":       &types.AttributeValueMemberS{Value: ex.Message},
		"reply":         &types.AttributeValueMemberS{Value: ex.Reply},
		"model":         &types.AttributeValueMemberS{Value: ex.Model},
		"outcome":       &types.AttributeValueMemberS{Value: string(ex.Outcome)},
		"createdAt":     &types.AttributeValueMemberS{Value: ex.CreatedAt.UTC().Format(time.RFC3339)},
		"ttl":           &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ex.CreatedAt.Add(c.ttl).Unix())},
	}
}
