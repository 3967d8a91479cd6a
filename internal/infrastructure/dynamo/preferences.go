package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-band-notify/internal/domain"
)

type preferenceItem struct {
	UserID               string `dynamodbav:"user_id"`
	NotificationsEnabled bool   `dynamodbav:"notifications_enabled"`
	Activities           bool   `dynamodbav:"activities"`
	Availability         bool   `dynamodbav:"availability"`
	Roster               bool   `dynamodbav:"roster"`
	Members              bool   `dynamodbav:"members"`
	UpdatedAt            int64  `dynamodbav:"updated_at"`
}

func (i preferenceItem) toDomain() domain.NotificationPreference {
	return domain.NotificationPreference{
		UserID:               i.UserID,
		NotificationsEnabled: i.NotificationsEnabled,
		Activities:           i.Activities,
		Availability:         i.Availability,
		Roster:               i.Roster,
		Members:              i.Members,
		UpdatedAt:            fromMillis(i.UpdatedAt),
	}
}

// PreferenceRepo provides typed DynamoDB operations for the notification_preferences table.
type PreferenceRepo struct {
	client    API
	tableName string
}

func NewPreferenceRepo(client API, tableName string) *PreferenceRepo {
	return &PreferenceRepo{client: client, tableName: tableName}
}

func (r *PreferenceRepo) Get(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrUserID, userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("preferences not found: %w", domain.ErrNotFound)
	}
	var item preferenceItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	p := item.toDomain()
	return &p, nil
}

func (r *PreferenceRepo) Put(ctx context.Context, p *domain.NotificationPreference) error {
	av, err := attributevalue.MarshalMap(preferenceItem{
		UserID:               p.UserID,
		NotificationsEnabled: p.NotificationsEnabled,
		Activities:           p.Activities,
		Availability:         p.Availability,
		Roster:               p.Roster,
		Members:              p.Members,
		UpdatedAt:            toMillis(p.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	return err
}

// getPreferences batch-reads the stored rows for userIDs, retrying keys
// DynamoDB leaves unprocessed.
func getPreferences(ctx context.Context, client API, tableName string, userIDs []string) (map[string]domain.NotificationPreference, error) {
	out := make(map[string]domain.NotificationPreference, len(userIDs))
	for start := 0; start < len(userIDs); start += maxBatchGetKeys {
		end := min(start+maxBatchGetKeys, len(userIDs))
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range userIDs[start:end] {
			keys = append(keys, strKey(attrUserID, id))
		}
		request := map[string]types.KeysAndAttributes{tableName: {Keys: keys}}
		for len(request) > 0 {
			res, err := client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, fmt.Errorf("batch get preferences: %w", err)
			}
			var items []preferenceItem
			if err := attributevalue.UnmarshalListOfMaps(res.Responses[tableName], &items); err != nil {
				return nil, err
			}
			for _, it := range items {
				out[it.UserID] = it.toDomain()
			}
			request = res.UnprocessedKeys
		}
	}
	return out, nil
}
