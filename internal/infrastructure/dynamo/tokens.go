package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-band-notify/internal/domain"
	"github.com/go-band-notify/internal/pkg/clock"
)

type tokenItem struct {
	Token       string `dynamodbav:"token"`
	RecipientID string `dynamodbav:"recipient_id"`
	Platform    string `dynamodbav:"platform"`
	LastSeen    int64  `dynamodbav:"last_seen"`
	CreatedAt   int64  `dynamodbav:"created_at"`
}

func (i tokenItem) toDomain() domain.DeviceToken {
	return domain.DeviceToken{
		Token:       i.Token,
		RecipientID: i.RecipientID,
		Platform:    domain.Platform(i.Platform),
		LastSeen:    fromMillis(i.LastSeen),
		CreatedAt:   fromMillis(i.CreatedAt),
	}
}

// TokenRepo provides typed DynamoDB operations for the device_tokens table.
type TokenRepo struct {
	client    API
	tableName string
	clock     clock.Clock
}

func NewTokenRepo(client API, tableName string, clk clock.Clock) *TokenRepo {
	return &TokenRepo{client: client, tableName: tableName, clock: clk}
}

// Register upserts by token; the latest registrant owns it.
func (r *TokenRepo) Register(ctx context.Context, recipientID, token string, platform domain.Platform) (*domain.DeviceToken, error) {
	now := toMillis(r.clock.Now())
	ue, err := buildUpdateExpr(map[string]interface{}{
		attrRecipientID: recipientID,
		attrPlatform:    string(platform),
		attrLastSeen:    now,
	})
	if err != nil {
		return nil, err
	}
	ue.Names["#created"] = attrCreatedAt
	ue.Values[":created"] = numValue(now)
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(attrToken, token),
		UpdateExpression:          aws.String(ue.Expr + ", #created = if_not_exists(#created, :created)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("register token: %w", err)
	}
	var item tokenItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	t := item.toDomain()
	return &t, nil
}

func (r *TokenRepo) Get(ctx context.Context, token string) (*domain.DeviceToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrToken, token),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("device token not found: %w", domain.ErrNotFound)
	}
	var item tokenItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	t := item.toDomain()
	return &t, nil
}

func (r *TokenRepo) TokensFor(ctx context.Context, recipientID string) ([]domain.DeviceToken, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(tokenRecipientIndex),
		KeyConditionExpression: aws.String("recipient_id = :r"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":r": strValue(recipientID),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tokens for recipient: %w", err)
	}
	var items []tokenItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, err
	}
	tokens := make([]domain.DeviceToken, len(items))
	for i, it := range items {
		tokens[i] = it.toDomain()
	}
	return tokens, nil
}

func (r *TokenRepo) Unregister(ctx context.Context, token string) error {
	return r.delete(ctx, token)
}

// Prune removes a token the gateway reported dead. DeleteItem on a missing
// key succeeds, so repeated prunes are harmless.
func (r *TokenRepo) Prune(ctx context.Context, token string) error {
	return r.delete(ctx, token)
}

func (r *TokenRepo) delete(ctx context.Context, token string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrToken, token),
	})
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
