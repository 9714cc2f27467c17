package dynamo

import (
	"context"
	"fmt"
	"time"

	"dos-ui/internal/domain"
	"dos-ui/internal/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// API is the subset of the DynamoDB client used by the session store.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// SessionStore persists session rows in a DynamoDB table keyed by sessionID.
type SessionStore struct {
	client API
	table  string
}

// NewSessionStore creates a SessionStore backed by the given client and table.
func NewSessionStore(client API, table string) *SessionStore {
	return &SessionStore{client: client, table: table}
}

// Put unconditionally upserts a full session row, overwriting any existing
// row with the same sessionID.
func (s *SessionStore) Put(ctx context.Context, session *domain.Session) error {
	item, err := attributevalue.MarshalMap(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	start := time.Now()
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	observability.StoreOpDuration.WithLabelValues("put", s.table).Observe(time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}
	return nil
}

// Get reads a session row with a strongly consistent read so a Put from the
// same request path is always visible. Absent and expired rows both map to
// domain.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	start := time.Now()
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"sessionID": &types.AttributeValueMemberS{Value: sessionID},
		},
		ConsistentRead: aws.Bool(true),
	})
	observability.StoreOpDuration.WithLabelValues("get", s.table).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if out.Item == nil {
		return nil, domain.ErrSessionNotFound
	}

	session := &domain.Session{}
	if err := attributevalue.UnmarshalMap(out.Item, session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if session.ExpiresAt <= time.Now().UnixMilli() {
		observability.FromContext(ctx).Debug("session row has expired",
			"session_id", sessionID,
			"expires_at", session.ExpiresAt,
			"table", s.table,
		)
		observability.SessionsExpired.Inc()
		return nil, domain.ErrSessionNotFound
	}

	return session, nil
}

// Delete removes a session row. Deleting an absent key is not an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	start := time.Now()
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"sessionID": &types.AttributeValueMemberS{Value: sessionID},
		},
	})
	observability.StoreOpDuration.WithLabelValues("delete", s.table).Observe(time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SessionTableName derives the session table name from the deployment
// environment and optional workspace suffix. An unset environment is a
// deployment misconfiguration.
func SessionTableName(environment, workspace string) (string, error) {
	if environment == "" {
		return "", fmt.Errorf("ENVIRONMENT environment variable must be set")
	}

	table := fmt.Sprintf("ftrs-dos-%s-ui-session-store", environment)
	if workspace != "" {
		table = table + "-" + workspace
	}
	return table, nil
}
