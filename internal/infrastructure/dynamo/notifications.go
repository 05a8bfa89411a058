package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/condo-notify/internal/domain"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(notification_id)"),
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldNotificationID, notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByUser returns the newest notifications for userID, read or not.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserNotification),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, err
	}
	notifications := []domain.Notification{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &notifications); err != nil {
		return nil, err
	}
	sortByCreatedDesc(notifications)
	return notifications, nil
}

// ListUnread queries the per-user GSI, newest first, keeping rows without read_at.
func (r *NotificationRepo) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	items, err := queryAll(ctx, r.client, r.unreadQuery(userID))
	if err != nil {
		return nil, err
	}
	notifications := []domain.Notification{}
	if err := attributevalue.UnmarshalListOfMaps(items, &notifications); err != nil {
		return nil, err
	}
	sortByCreatedDesc(notifications)
	return notifications, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	input := r.unreadQuery(userID)
	input.Select = types.SelectCount
	total := 0
	p := dynamodb.NewQueryPaginator(r.client, input)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		total += int(out.Count)
	}
	return total, nil
}

// MarkRead sets read_at only if it is still unset. It reports false when the
// row was already read so the caller can return the stored timestamp.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string, at time.Time) (bool, error) {
	av, err := attributevalue.Marshal(at)
	if err != nil {
		return false, err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldNotificationID, notificationID),
		UpdateExpression:    aws.String("SET read_at = :at"),
		ConditionExpression: aws.String("attribute_exists(notification_id) AND attribute_not_exists(read_at)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":at": av,
		},
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	unread, err := r.ListUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, n := range unread {
		ok, err := r.MarkRead(ctx, n.NotificationID, at)
		if err != nil {
			return marked, err
		}
		if ok {
			marked++
		}
	}
	return marked, nil
}

func (r *NotificationRepo) unreadQuery(userID string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserNotification),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("attribute_not_exists(read_at)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}
}

// sortByCreatedDesc orders rows sharing a ULID millisecond by their full
// created_at. Ties break on id, newest first.
func sortByCreatedDesc(ns []domain.Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].CreatedAt.Equal(ns[j].CreatedAt) {
			return ns[i].NotificationID > ns[j].NotificationID
		}
		return ns[i].CreatedAt.After(ns[j].CreatedAt)
	})
}
