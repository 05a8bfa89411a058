package main

import (
	"context"
	"fmt"
	"log"

	"github.com/condo-notify/internal/application/dispatch"
	"github.com/condo-notify/internal/config"
	"github.com/condo-notify/internal/infrastructure/dynamo"
	"github.com/condo-notify/internal/infrastructure/fcm"
	"github.com/condo-notify/internal/infrastructure/logpush"
	s3infra "github.com/condo-notify/internal/infrastructure/s3"
	"github.com/condo-notify/internal/infrastructure/sns"
	"github.com/condo-notify/internal/infrastructure/sqlstore"
	transporthttp "github.com/condo-notify/internal/transport/http"
)

type stores struct {
	endpoints     transporthttp.EndpointStore
	templates     transporthttp.TemplateStore
	notifications transporthttp.NotificationStore
	close         func() error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case "dynamo":
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		return &stores{
			endpoints:     dynamo.NewEndpointRepo(client, cfg.DynamoTables.Endpoints),
			templates:     dynamo.NewTemplateRepo(client, cfg.DynamoTables.Templates),
			notifications: dynamo.NewNotificationRepo(client, cfg.DynamoTables.Notifications),
			close:         func() error { return nil },
		}, nil
	case "postgres", "sqlite":
		db, err := sqlstore.Open(cfg)
		if err != nil {
			return nil, err
		}
		return &stores{
			endpoints:     sqlstore.NewEndpointRepo(db),
			templates:     sqlstore.NewTemplateRepo(db),
			notifications: sqlstore.NewNotificationRepo(db),
			close:         func() error { return sqlstore.Close(db) },
		}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func newGateway(ctx context.Context, cfg *config.Config) (dispatch.Gateway, error) {
	switch cfg.PushProvider {
	case "fcm":
		return fcm.NewGateway(ctx, cfg.FirebaseCredentialsPath)
	case "sns":
		return sns.NewGateway(ctx, cfg)
	case "log":
		log.Println("WARN: PUSH_PROVIDER=log, pushes are only logged")
		return logpush.NewGateway(), nil
	default:
		return nil, fmt.Errorf("unknown PUSH_PROVIDER %q", cfg.PushProvider)
	}
}

// newArchive returns nil when REPORT_BUCKET is unset.
func newArchive(ctx context.Context, cfg *config.Config) (dispatch.ReportArchive, error) {
	if cfg.ReportBucket == "" {
		return nil, nil
	}
	client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s3infra.NewReportArchive(client, cfg.ReportBucket), nil
}
