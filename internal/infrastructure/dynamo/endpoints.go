package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/condo-notify/internal/domain"
)

// EndpointRepo provides typed DynamoDB operations for the push endpoints table.
type EndpointRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEndpointRepo(client *dynamodb.Client, tableName string) *EndpointRepo {
	return &EndpointRepo{client: client, tableName: tableName}
}

// Upsert writes e keyed by (user_id, token) in a single UpdateItem. An existing
// row keeps its endpoint_id and registered_at; everything else is refreshed.
func (r *EndpointRepo) Upsert(ctx context.Context, e *domain.Endpoint) (*domain.Endpoint, error) {
	now, err := attributevalue.Marshal(e.LastSeenAt)
	if err != nil {
		return nil, fmt.Errorf("marshal endpoint time: %w", err)
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey(fieldUserID, e.UserID, fieldToken, e.Token),
		UpdateExpression: aws.String("SET #valid = :valid, #platform = :platform, #seen = :now, #updated = :now, " +
			"#eid = if_not_exists(#eid, :eid), #registered = if_not_exists(#registered, :now)"),
		ExpressionAttributeNames: map[string]string{
			"#valid":      fieldValid,
			"#platform":   fieldPlatform,
			"#seen":       fieldLastSeenAt,
			"#updated":    fieldUpdatedAt,
			"#eid":        fieldEndpointID,
			"#registered": fieldRegisteredAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":valid":    &types.AttributeValueMemberBOOL{Value: e.Valid},
			":platform": &types.AttributeValueMemberS{Value: e.Platform},
			":now":      now,
			":eid":      &types.AttributeValueMemberS{Value: e.EndpointID},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert endpoint: %w", err)
	}
	var stored domain.Endpoint
	if err := attributevalue.UnmarshalMap(out.Attributes, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *EndpointRepo) Get(ctx context.Context, endpointID string) (*domain.Endpoint, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexEndpointID),
		KeyConditionExpression: aws.String("endpoint_id = :eid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":eid": &types.AttributeValueMemberS{Value: endpointID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("endpoint %s: %w", endpointID, domain.ErrNotFound)
	}
	var e domain.Endpoint
	if err := attributevalue.UnmarshalMap(out.Items[0], &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EndpointRepo) ListByUser(ctx context.Context, userID string) ([]domain.Endpoint, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	endpoints := []domain.Endpoint{}
	if err := attributevalue.UnmarshalListOfMaps(items, &endpoints); err != nil {
		return nil, err
	}
	return endpoints, nil
}

// InvalidateToken flags every row carrying token as invalid, whichever user owns it.
func (r *EndpointRepo) InvalidateToken(ctx context.Context, token string, at time.Time) error {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexToken),
		KeyConditionExpression: aws.String("#tok = :tok"),
		ExpressionAttributeNames: map[string]string{
			"#tok": fieldToken,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tok": &types.AttributeValueMemberS{Value: token},
		},
	})
	if err != nil {
		return err
	}
	var matches []domain.Endpoint
	if err := attributevalue.UnmarshalListOfMaps(items, &matches); err != nil {
		return err
	}
	for _, e := range matches {
		if !e.Valid {
			continue
		}
		if err := r.SetValid(ctx, e.UserID, e.Token, false, at); err != nil {
			return err
		}
	}
	return nil
}

func (r *EndpointRepo) SetValid(ctx context.Context, userID, token string, valid bool, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldValid:     valid,
		fieldUpdatedAt: at,
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey(fieldUserID, userID, fieldToken, token),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(user_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("endpoint for %s: %w", userID, domain.ErrNotFound)
	}
	return err
}
