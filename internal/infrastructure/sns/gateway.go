package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/condo-notify/internal/config"
	"github.com/condo-notify/internal/domain"
	"github.com/condo-notify/internal/infrastructure/awsenv"
)

type snsAPI interface {
	CreatePlatformEndpoint(ctx context.Context, in *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error)
	GetEndpointAttributes(ctx context.Context, in *sns.GetEndpointAttributesInput, optFns ...func(*sns.Options)) (*sns.GetEndpointAttributesOutput, error)
	SetEndpointAttributes(ctx context.Context, in *sns.SetEndpointAttributesInput, optFns ...func(*sns.Options)) (*sns.SetEndpointAttributesOutput, error)
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Gateway pushes through an SNS platform application. Each device token is
// resolved to a platform endpoint (an idempotent call) and published to directly.
// A token that reaches Deliver is valid in the registry, so a platform endpoint
// SNS disabled earlier is re-enabled before publishing.
type Gateway struct {
	client         snsAPI
	applicationARN string
}

func NewGateway(ctx context.Context, cfg *config.Config) (*Gateway, error) {
	if cfg.SNSPlatformApplicationARN == "" {
		return nil, fmt.Errorf("SNS_PLATFORM_APPLICATION_ARN is required for the sns push provider")
	}
	awsCfg, err := awsenv.Load(ctx, cfg, cfg.SNSRegion)
	if err != nil {
		return nil, err
	}
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		o.BaseEndpoint = awsenv.BaseEndpoint(cfg)
	})
	return &Gateway{client: client, applicationARN: cfg.SNSPlatformApplicationARN}, nil
}

func (g *Gateway) Deliver(ctx context.Context, token string, msg domain.PushMessage) domain.DeliveryOutcome {
	ep, err := g.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(g.applicationARN),
		Token:                  aws.String(token),
	})
	if err != nil {
		return logged(classify(err), "create platform endpoint", err)
	}
	if err := g.ensureEnabled(ctx, ep.EndpointArn); err != nil {
		return logged(classify(err), "enable platform endpoint", err)
	}
	payload, err := buildPayload(msg)
	if err != nil {
		return logged(domain.TransientFailure, "encode payload", err)
	}
	_, err = g.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        ep.EndpointArn,
		Message:          aws.String(payload),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		return logged(classify(err), "publish", err)
	}
	return domain.Delivered
}

func (g *Gateway) ensureEnabled(ctx context.Context, endpointARN *string) error {
	attrs, err := g.client.GetEndpointAttributes(ctx, &sns.GetEndpointAttributesInput{EndpointArn: endpointARN})
	if err != nil {
		return err
	}
	if !strings.EqualFold(attrs.Attributes["Enabled"], "false") {
		return nil
	}
	_, err = g.client.SetEndpointAttributes(ctx, &sns.SetEndpointAttributesInput{
		EndpointArn: endpointARN,
		Attributes:  map[string]string{"Enabled": "true"},
	})
	if err == nil {
		slog.Info("re-enabled sns platform endpoint", "endpoint_arn", aws.ToString(endpointARN))
	}
	return err
}

func logged(outcome domain.DeliveryOutcome, step string, err error) domain.DeliveryOutcome {
	slog.Warn("sns push failed", "step", step, "outcome", outcome, "err", err)
	return outcome
}

// classify reports permanent only when SNS says the endpoint itself is gone:
// a disabled endpoint, or an InvalidParameter aimed at the token or target ARN.
// Anything about the message, such as an oversize payload, is transient.
func classify(err error) domain.DeliveryOutcome {
	var disabled *types.EndpointDisabledException
	var invalid *types.InvalidParameterException
	switch {
	case err == nil:
		return domain.Delivered
	case errors.As(err, &disabled):
		return domain.PermanentFailure
	case errors.As(err, &invalid) && rejectsEndpoint(invalid.ErrorMessage()):
		return domain.PermanentFailure
	default:
		return domain.TransientFailure
	}
}

// rejectsEndpoint matches SNS messages like
// "Invalid parameter: TargetArn Reason: No endpoint found for the target arn specified".
func rejectsEndpoint(msg string) bool {
	m := strings.ToLower(msg)
	if strings.Contains(m, "already exists") {
		return false
	}
	return strings.Contains(m, "no endpoint found") ||
		strings.Contains(m, "parameter: token") ||
		strings.Contains(m, "parameter: targetarn")
}

// buildPayload renders the per-protocol JSON envelope SNS expects when
// MessageStructure is "json".
func buildPayload(msg domain.PushMessage) (string, error) {
	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]string{"title": msg.Title, "body": msg.Body},
		"data":         msg.Data,
	})
	if err != nil {
		return "", err
	}
	apnsBody := map[string]any{
		"aps": map[string]any{
			"alert": map[string]string{"title": msg.Title, "body": msg.Body},
		},
	}
	for k, v := range msg.Data {
		if k != "aps" {
			apnsBody[k] = v
		}
	}
	apns, err := json.Marshal(apnsBody)
	if err != nil {
		return "", err
	}
	envelope, err := json.Marshal(map[string]string{
		"default":      msg.Body,
		"GCM":          string(gcm),
		"APNS":         string(apns),
		"APNS_SANDBOX": string(apns),
	})
	if err != nil {
		return "", err
	}
	return string(envelope), nil
}
