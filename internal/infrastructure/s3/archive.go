package s3infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/condo-notify/internal/config"
	"github.com/condo-notify/internal/domain"
	"github.com/condo-notify/internal/infrastructure/awsenv"
)

const reportPrefix = "dispatch-reports"

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportArchive writes dispatch reports as JSON objects, one per dispatch.
type ReportArchive struct {
	client putter
	bucket string
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsenv.Load(ctx, cfg, "")
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep := awsenv.BaseEndpoint(cfg); ep != nil {
			o.BaseEndpoint = ep
			o.UsePathStyle = true
		}
	}), nil
}

func NewReportArchive(client *s3.Client, bucket string) *ReportArchive {
	return &ReportArchive{client: client, bucket: bucket}
}

func (a *ReportArchive) Archive(ctx context.Context, r *domain.DispatchReport) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(reportKey(r)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

// reportKey partitions reports by the UTC day the dispatch started.
func reportKey(r *domain.DispatchReport) string {
	return path.Join(reportPrefix, r.StartedAt.UTC().Format("2006/01/02"), r.DispatchID+".json")
}
