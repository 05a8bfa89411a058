package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/condo-notify/internal/domain"
)

// TemplateRepo provides typed DynamoDB operations for the templates table.
type TemplateRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTemplateRepo(client *dynamodb.Client, tableName string) *TemplateRepo {
	return &TemplateRepo{client: client, tableName: tableName}
}

func (r *TemplateRepo) Get(ctx context.Context, name string) (*domain.Template, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldName, name),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("template %q: %w", name, domain.ErrNotFound)
	}
	var t domain.Template
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Scan returns every template. The table holds a handful of rows.
func (r *TemplateRepo) Scan(ctx context.Context) ([]domain.Template, error) {
	templates := []domain.Template{}
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []domain.Template
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		templates = append(templates, page...)
	}
	return templates, nil
}

func (r *TemplateRepo) Put(ctx context.Context, t *domain.Template) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}
