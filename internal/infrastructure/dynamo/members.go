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

type memberItem struct {
	BandID   string `dynamodbav:"band_id"`
	UserID   string `dynamodbav:"user_id"`
	Active   bool   `dynamodbav:"active"`
	JoinedAt int64  `dynamodbav:"joined_at"`
}

// MemberRepo provides typed DynamoDB operations for the band_members table.
type MemberRepo struct {
	client    API
	tableName string
}

func NewMemberRepo(client API, tableName string) *MemberRepo {
	return &MemberRepo{client: client, tableName: tableName}
}

func (r *MemberRepo) Put(ctx context.Context, m *domain.BandMember) error {
	av, err := attributevalue.MarshalMap(memberItem{
		BandID:   m.BandID,
		UserID:   m.UserID,
		Active:   m.Active,
		JoinedAt: toMillis(m.JoinedAt),
	})
	if err != nil {
		return fmt.Errorf("marshal band member: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	return err
}

func (r *MemberRepo) ListByBand(ctx context.Context, bandID string) ([]domain.BandMember, error) {
	return listMembers(ctx, r.client, r.tableName, bandID)
}

func listMembers(ctx context.Context, client API, tableName, bandID string) ([]domain.BandMember, error) {
	var (
		members  []domain.BandMember
		startKey map[string]types.AttributeValue
	)
	for {
		out, err := client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(tableName),
			KeyConditionExpression: aws.String("band_id = :b"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":b": strValue(bandID),
			},
			ConsistentRead:    aws.Bool(true),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("list band members: %w", err)
		}
		var items []memberItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, err
		}
		for _, it := range items {
			members = append(members, domain.BandMember{
				BandID:   it.BandID,
				UserID:   it.UserID,
				Active:   it.Active,
				JoinedAt: fromMillis(it.JoinedAt),
			})
		}
		if len(out.LastEvaluatedKey) == 0 {
			return members, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
