package s3infra

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/condo-notify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPutter struct{ mock.Mock }

func (m *mockPutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*s3.PutObjectOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func report() *domain.DispatchReport {
	return &domain.DispatchReport{
		DispatchID:   "01HZX",
		TemplateName: "welcome",
		StartedAt:    time.Date(2026, 4, 9, 23, 59, 0, 0, time.UTC),
		Recipients:   []domain.RecipientReport{{UserID: "u1", Attempted: 1, Delivered: 1}},
	}
}

func TestReportKey(t *testing.T) {
	assert.Equal(t, "dispatch-reports/2026/04/09/01HZX.json", reportKey(report()))
}

func TestArchive_PutsJSON(t *testing.T) {
	api := &mockPutter{}
	var body []byte
	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "reports" && aws.ToString(in.Key) == "dispatch-reports/2026/04/09/01HZX.json"
	})).Run(func(args mock.Arguments) {
		body, _ = io.ReadAll(args.Get(1).(*s3.PutObjectInput).Body)
	}).Return(&s3.PutObjectOutput{}, nil)

	err := (&ReportArchive{client: api, bucket: "reports"}).Archive(context.Background(), report())

	require.NoError(t, err)
	var got domain.DispatchReport
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "welcome", got.TemplateName)
	assert.Len(t, got.Recipients, 1)
}

func TestArchive_WrapsError(t *testing.T) {
	api := &mockPutter{}
	api.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	err := (&ReportArchive{client: api, bucket: "reports"}).Archive(context.Background(), report())

	assert.ErrorContains(t, err, "s3 put object")
}
