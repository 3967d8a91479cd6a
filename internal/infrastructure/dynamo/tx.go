package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-band-notify/internal/config"
	"github.com/go-band-notify/internal/domain"
)

// Store runs producer units of work as a single TransactWriteItems call.
// Reads inside the unit of work go straight to the tables; writes are
// buffered and committed together, so either all land or none do.
type Store struct {
	client API
	tables config.DynamoTables
}

func NewStore(client API, tables config.DynamoTables) *Store {
	return &Store{client: client, tables: tables}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.RecordTx) error) error {
	tx := &writeTx{client: s.client, tables: s.tables}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if len(tx.items) == 0 {
		return nil
	}
	if len(tx.items) > maxTransactItems {
		return fmt.Errorf("unit of work has %d writes, limit is %d: %w", len(tx.items), maxTransactItems, domain.ErrBadRequest)
	}
	if _, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: tx.items}); err != nil {
		return queueErr("commit unit of work", err)
	}
	return nil
}

type writeTx struct {
	client API
	tables config.DynamoTables
	items  []types.TransactWriteItem
}

func (t *writeTx) ListBandMembers(ctx context.Context, bandID string) ([]domain.BandMember, error) {
	return listMembers(ctx, t.client, t.tables.BandMembers, bandID)
}

func (t *writeTx) GetPreferences(ctx context.Context, userIDs []string) (map[string]domain.NotificationPreference, error) {
	return getPreferences(ctx, t.client, t.tables.Preferences, userIDs)
}

func (t *writeTx) InsertNotifications(_ context.Context, ns []domain.Notification) error {
	for i := range ns {
		if ns[i].ActorID != nil && *ns[i].ActorID == ns[i].RecipientID {
			return fmt.Errorf("notification %s addressed to its actor: %w", ns[i].NotificationID, domain.ErrBadRequest)
		}
		av, err := attributevalue.MarshalMap(toNotificationItem(&ns[i]))
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		t.put(t.tables.Notifications, av, attrNotificationID)
	}
	return nil
}

func (t *writeTx) InsertEvent(_ context.Context, e *domain.BandEvent) error {
	av, err := attributevalue.MarshalMap(eventItem{
		EventID:   e.EventID,
		BandID:    e.BandID,
		ActorID:   e.ActorID,
		Type:      string(e.Type),
		Payload:   e.Payload,
		CreatedAt: toMillis(e.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("marshal band event: %w", err)
	}
	t.put(t.tables.BandEvents, av, attrEventID)
	return nil
}

func (t *writeTx) put(table string, item map[string]types.AttributeValue, keyAttr string) {
	t.items = append(t.items, types.TransactWriteItem{
		Put: &types.Put{
			TableName:                aws.String(table),
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#k)"),
			ExpressionAttributeNames: map[string]string{"#k": keyAttr},
		},
	})
}

type eventItem struct {
	EventID   string            `dynamodbav:"event_id"`
	BandID    string            `dynamodbav:"band_id"`
	ActorID   *string           `dynamodbav:"actor_id,omitempty"`
	Type      string            `dynamodbav:"type"`
	Payload   map[string]string `dynamodbav:"payload,omitempty"`
	CreatedAt int64             `dynamodbav:"created_at"`
}
