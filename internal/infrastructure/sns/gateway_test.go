package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/condo-notify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSNS struct{ mock.Mock }

func (m *mockSNS) CreatePlatformEndpoint(ctx context.Context, in *sns.CreatePlatformEndpointInput, _ ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*sns.CreatePlatformEndpointOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSNS) GetEndpointAttributes(ctx context.Context, in *sns.GetEndpointAttributesInput, _ ...func(*sns.Options)) (*sns.GetEndpointAttributesOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*sns.GetEndpointAttributesOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSNS) SetEndpointAttributes(ctx context.Context, in *sns.SetEndpointAttributesInput, _ ...func(*sns.Options)) (*sns.SetEndpointAttributesOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*sns.SetEndpointAttributesOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*sns.PublishOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func newGateway(api *mockSNS) *Gateway {
	return &Gateway{client: api, applicationARN: "arn:aws:sns:us-east-1:000000000000:app/GCM/condo"}
}

func enabledEndpoint(api *mockSNS, enabled string) {
	api.On("CreatePlatformEndpoint", mock.Anything, mock.Anything).
		Return(&sns.CreatePlatformEndpointOutput{EndpointArn: aws.String("arn:endpoint/1")}, nil)
	api.On("GetEndpointAttributes", mock.Anything, mock.Anything).
		Return(&sns.GetEndpointAttributesOutput{Attributes: map[string]string{"Enabled": enabled}}, nil)
}

func TestDeliver_PublishesToPlatformEndpoint(t *testing.T) {
	api := &mockSNS{}
	api.On("CreatePlatformEndpoint", mock.Anything, mock.MatchedBy(func(in *sns.CreatePlatformEndpointInput) bool {
		return aws.ToString(in.Token) == "tok"
	})).Return(&sns.CreatePlatformEndpointOutput{EndpointArn: aws.String("arn:endpoint/1")}, nil)
	api.On("GetEndpointAttributes", mock.Anything, mock.Anything).
		Return(&sns.GetEndpointAttributesOutput{Attributes: map[string]string{"Enabled": "true", "Token": "tok"}}, nil)
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return aws.ToString(in.TargetArn) == "arn:endpoint/1" && aws.ToString(in.MessageStructure) == "json"
	})).Return(&sns.PublishOutput{MessageId: aws.String("m1")}, nil)

	out := newGateway(api).Deliver(context.Background(), "tok", domain.PushMessage{Title: "t", Body: "b"})

	assert.Equal(t, domain.Delivered, out)
	api.AssertExpectations(t)
	api.AssertNotCalled(t, "SetEndpointAttributes", mock.Anything, mock.Anything)
}

func TestDeliver_ReenablesDisabledEndpointForReregisteredToken(t *testing.T) {
	api := &mockSNS{}
	enabledEndpoint(api, "false")
	api.On("SetEndpointAttributes", mock.Anything, mock.MatchedBy(func(in *sns.SetEndpointAttributesInput) bool {
		return aws.ToString(in.EndpointArn) == "arn:endpoint/1" && in.Attributes["Enabled"] == "true"
	})).Return(&sns.SetEndpointAttributesOutput{}, nil)
	api.On("Publish", mock.Anything, mock.Anything).Return(&sns.PublishOutput{MessageId: aws.String("m1")}, nil)

	out := newGateway(api).Deliver(context.Background(), "tok", domain.PushMessage{Body: "b"})

	assert.Equal(t, domain.Delivered, out)
	api.AssertExpectations(t)
}

func TestDeliver_ReenableFailureIsTransient(t *testing.T) {
	api := &mockSNS{}
	enabledEndpoint(api, "false")
	api.On("SetEndpointAttributes", mock.Anything, mock.Anything).
		Return(nil, &types.ThrottledException{Message: aws.String("slow down")})

	out := newGateway(api).Deliver(context.Background(), "tok", domain.PushMessage{Body: "b"})

	assert.Equal(t, domain.TransientFailure, out)
	api.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestDeliver_OversizeMessageIsTransient(t *testing.T) {
	api := &mockSNS{}
	enabledEndpoint(api, "true")
	api.On("Publish", mock.Anything, mock.Anything).
		Return(nil, &types.InvalidParameterException{Message: aws.String("Invalid parameter: Message too long")})

	out := newGateway(api).Deliver(context.Background(), "healthy-token", domain.PushMessage{Body: strings.Repeat("x", 5000)})

	assert.Equal(t, domain.TransientFailure, out)
}

func TestDeliver_UnknownTargetIsPermanent(t *testing.T) {
	api := &mockSNS{}
	enabledEndpoint(api, "true")
	api.On("Publish", mock.Anything, mock.Anything).
		Return(nil, &types.InvalidParameterException{Message: aws.String("Invalid parameter: TargetArn Reason: No endpoint found for the target arn specified")})

	out := newGateway(api).Deliver(context.Background(), "tok", domain.PushMessage{Body: "b"})

	assert.Equal(t, domain.PermanentFailure, out)
}

func TestDeliver_DisabledEndpointIsPermanent(t *testing.T) {
	api := &mockSNS{}
	enabledEndpoint(api, "true")
	api.On("Publish", mock.Anything, mock.Anything).
		Return(nil, &types.EndpointDisabledException{Message: aws.String("Endpoint is disabled")})

	out := newGateway(api).Deliver(context.Background(), "tok", domain.PushMessage{Body: "b"})

	assert.Equal(t, domain.PermanentFailure, out)
}

func TestDeliver_CreateEndpointThrottledIsTransient(t *testing.T) {
	api := &mockSNS{}
	api.On("CreatePlatformEndpoint", mock.Anything, mock.Anything).
		Return(nil, &types.ThrottledException{Message: aws.String("slow down")})

	out := newGateway(api).Deliver(context.Background(), "tok", domain.PushMessage{Body: "b"})

	assert.Equal(t, domain.TransientFailure, out)
	api.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, domain.Delivered, classify(nil))
	assert.Equal(t, domain.PermanentFailure, classify(fmt.Errorf("wrapped: %w", &types.EndpointDisabledException{})))
	assert.Equal(t, domain.TransientFailure, classify(errors.New("timeout")))

	cases := []struct {
		msg  string
		want domain.DeliveryOutcome
	}{
		{"Invalid parameter: Token Reason: iOS device tokens must be no more than 400 hexadecimal characters", domain.PermanentFailure},
		{"Invalid parameter: TargetArn Reason: No endpoint found for the target arn specified", domain.PermanentFailure},
		{"Invalid parameter: Token Reason: Endpoint arn:endpoint/1 already exists with the same Token, but different attributes.", domain.TransientFailure},
		{"Invalid parameter: Message too long", domain.TransientFailure},
		{"Invalid parameter: Message Structure - JSON message body failed to parse", domain.TransientFailure},
	}
	for _, c := range cases {
		err := fmt.Errorf("publish: %w", &types.InvalidParameterException{Message: aws.String(c.msg)})
		assert.Equal(t, c.want, classify(err), c.msg)
	}
}

func TestBuildPayload(t *testing.T) {
	payload, err := buildPayload(domain.PushMessage{Title: "Hi", Body: "Hello", Data: map[string]string{"type": "welcome"}})
	require.NoError(t, err)

	var envelope map[string]string
	require.NoError(t, json.Unmarshal([]byte(payload), &envelope))
	assert.Equal(t, "Hello", envelope["default"])

	var gcm struct {
		Notification map[string]string `json:"notification"`
		Data         map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(envelope["GCM"]), &gcm))
	assert.Equal(t, "Hi", gcm.Notification["title"])
	assert.Equal(t, "welcome", gcm.Data["type"])

	var apns map[string]any
	require.NoError(t, json.Unmarshal([]byte(envelope["APNS"]), &apns))
	assert.Equal(t, "welcome", apns["type"])
	assert.Contains(t, apns, "aps")
}
