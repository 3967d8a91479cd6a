package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-band-notify/internal/domain"
	"github.com/go-band-notify/internal/pkg/clock"
)

// notificationItem is the stored shape of a notification. Times are unix
// milliseconds so they sort numerically in the indexes.
type notificationItem struct {
	NotificationID string            `dynamodbav:"notification_id"`
	BandID         string            `dynamodbav:"band_id"`
	RecipientID    string            `dynamodbav:"recipient_id"`
	ActorID        *string           `dynamodbav:"actor_id,omitempty"`
	Type           string            `dynamodbav:"type"`
	Title          string            `dynamodbav:"title"`
	Body           string            `dynamodbav:"body"`
	Metadata       map[string]string `dynamodbav:"metadata,omitempty"`
	CreatedAt      int64             `dynamodbav:"created_at"`
	ClaimedAt      *int64            `dynamodbav:"claimed_at,omitempty"`
	SentAt         *int64            `dynamodbav:"sent_at,omitempty"`
	ReadAt         *int64            `dynamodbav:"read_at,omitempty"`
	Pending        string            `dynamodbav:"pending,omitempty"`
}

func toNotificationItem(n *domain.Notification) notificationItem {
	item := notificationItem{
		NotificationID: n.NotificationID,
		BandID:         n.BandID,
		RecipientID:    n.RecipientID,
		ActorID:        n.ActorID,
		Type:           string(n.Type),
		Title:          n.Title,
		Body:           n.Body,
		Metadata:       n.Metadata,
		CreatedAt:      toMillis(n.CreatedAt),
	}
	if n.SentAt == nil {
		item.Pending = pendingMarker
	} else {
		ms := toMillis(*n.SentAt)
		item.SentAt = &ms
	}
	if n.ClaimedAt != nil {
		ms := toMillis(*n.ClaimedAt)
		item.ClaimedAt = &ms
	}
	if n.ReadAt != nil {
		ms := toMillis(*n.ReadAt)
		item.ReadAt = &ms
	}
	return item
}

func (i notificationItem) toDomain() domain.Notification {
	return domain.Notification{
		NotificationID: i.NotificationID,
		BandID:         i.BandID,
		RecipientID:    i.RecipientID,
		ActorID:        i.ActorID,
		Type:           domain.EventType(i.Type),
		Title:          i.Title,
		Body:           i.Body,
		Metadata:       i.Metadata,
		CreatedAt:      fromMillis(i.CreatedAt),
		ClaimedAt:      optMillis(i.ClaimedAt),
		SentAt:         optMillis(i.SentAt),
		ReadAt:         optMillis(i.ReadAt),
	}
}

func unmarshalNotification(av map[string]types.AttributeValue) (domain.Notification, error) {
	var item notificationItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return domain.Notification{}, fmt.Errorf("unmarshal notification: %w", err)
	}
	return item.toDomain(), nil
}

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    API
	tableName string
	clock     clock.Clock
}

func NewNotificationRepo(client API, tableName string, clk clock.Clock) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName, clock: clk}
}

// ClaimBatch walks the pending index oldest first and claims rows one by one
// with a conditional update. A failed condition means another worker got the
// row first, so it is skipped; claim sets of concurrent callers never overlap.
func (r *NotificationRepo) ClaimBatch(ctx context.Context, limit int, claimTTL time.Duration) ([]domain.Notification, error) {
	now := r.clock.Now()
	cutoff := numValue(toMillis(now.Add(-claimTTL)))
	claimed := make([]domain.Notification, 0, limit)

	var startKey map[string]types.AttributeValue
	for len(claimed) < limit {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(pendingIndex),
			KeyConditionExpression: aws.String("#p = :p"),
			FilterExpression:       aws.String("attribute_not_exists(#c) OR #c < :cutoff"),
			ExpressionAttributeNames: map[string]string{
				"#p": attrPending,
				"#c": attrClaimedAt,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":p":      strValue(pendingMarker),
				":cutoff": cutoff,
			},
			ScanIndexForward:  aws.Bool(true),
			Limit:             aws.Int32(int32(limit)),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, queueErr("query pending", err)
		}
		for _, av := range out.Items {
			if len(claimed) >= limit {
				break
			}
			idAttr, ok := av[attrNotificationID].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			n, won, err := r.claimOne(ctx, idAttr.Value, now, cutoff)
			if err != nil {
				return nil, err
			}
			if won {
				claimed = append(claimed, n)
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.Slice(claimed, func(i, j int) bool {
		a, b := claimed[i], claimed[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.NotificationID < b.NotificationID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return claimed, nil
}

func (r *NotificationRepo) claimOne(ctx context.Context, id string, now time.Time, cutoff types.AttributeValue) (domain.Notification, bool, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(attrNotificationID, id),
		UpdateExpression:    aws.String("SET #c = :now"),
		ConditionExpression: aws.String("attribute_exists(#p) AND (attribute_not_exists(#c) OR #c < :cutoff)"),
		ExpressionAttributeNames: map[string]string{
			"#p": attrPending,
			"#c": attrClaimedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":    numValue(toMillis(now)),
			":cutoff": cutoff,
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return domain.Notification{}, false, nil
		}
		return domain.Notification{}, false, queueErr("claim notification", err)
	}
	n, err := unmarshalNotification(out.Attributes)
	if err != nil {
		return domain.Notification{}, false, queueErr("claim notification", err)
	}
	return n, true, nil
}

// MarkSent sets sent_at once and drops the rows out of the pending index.
// Each chunk of ids is one transaction.
func (r *NotificationRepo) MarkSent(ctx context.Context, ids []string) error {
	now := numValue(toMillis(r.clock.Now()))
	for start := 0; start < len(ids); start += maxTransactItems {
		end := min(start+maxTransactItems, len(ids))
		items := make([]types.TransactWriteItem, 0, end-start)
		for _, id := range ids[start:end] {
			items = append(items, types.TransactWriteItem{
				Update: &types.Update{
					TableName:           aws.String(r.tableName),
					Key:                 strKey(attrNotificationID, id),
					UpdateExpression:    aws.String("SET #s = if_not_exists(#s, :now) REMOVE #p"),
					ConditionExpression: aws.String("attribute_exists(#id)"),
					ExpressionAttributeNames: map[string]string{
						"#s":  attrSentAt,
						"#p":  attrPending,
						"#id": attrNotificationID,
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{":now": now},
				},
			})
		}
		if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
			return queueErr("mark sent", err)
		}
	}
	return nil
}

func (r *NotificationRepo) CountPending(ctx context.Context) (int, error) {
	total := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(pendingIndex),
			KeyConditionExpression:    aws.String("#p = :p"),
			ExpressionAttributeNames:  map[string]string{"#p": attrPending},
			ExpressionAttributeValues: map[string]types.AttributeValue{":p": strValue(pendingMarker)},
			Select:                    types.SelectCount,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return 0, queueErr("count pending", err)
		}
		total += int(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrNotificationID, notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	n, err := unmarshalNotification(out.Item)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListForRecipient queries the recipient_id-created_at GSI newest first.
func (r *NotificationRepo) ListForRecipient(ctx context.Context, recipientID, cursor string, limit int) (*domain.NotificationPage, error) {
	in := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(recipientFeedIndex),
		KeyConditionExpression:    aws.String("#r = :r"),
		ExpressionAttributeNames:  map[string]string{"#r": attrRecipientID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":r": strValue(recipientID)},
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
	}
	if cursor != "" {
		k, err := decodePageKey(cursor)
		if err != nil {
			return nil, err
		}
		if k.RecipientID != recipientID {
			return nil, fmt.Errorf("cursor belongs to another feed: %w", domain.ErrBadRequest)
		}
		in.ExclusiveStartKey = k.attributes()
	}
	out, err := r.client.Query(ctx, in)
	if err != nil {
		return nil, err
	}
	page := &domain.NotificationPage{Items: make([]domain.Notification, 0, len(out.Items))}
	for _, av := range out.Items {
		n, err := unmarshalNotification(av)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, n)
	}
	if len(out.LastEvaluatedKey) > 0 && len(page.Items) > 0 {
		last := page.Items[len(page.Items)-1]
		page.NextCursor = encodePageKey(pageKey{
			NotificationID: last.NotificationID,
			RecipientID:    last.RecipientID,
			CreatedAt:      toMillis(last.CreatedAt),
		})
	}
	return page, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(attrNotificationID, notificationID),
		UpdateExpression:    aws.String("SET #rd = if_not_exists(#rd, :now)"),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#rd": attrReadAt,
			"#id": attrNotificationID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": numValue(toMillis(r.clock.Now())),
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	n, err := unmarshalNotification(out.Attributes)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
