package dynamo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"valid": false})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "valid"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"valid":        true,
		"last_seen_at": "2026-01-01T00:00:00Z",
		"platform":     "ios",
	}
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)

	// Keys must be sorted: last_seen_at < platform < valid
	assert.Equal(t, "last_seen_at", ue1.Names["#f0"])
	assert.Equal(t, "platform", ue1.Names["#f1"])
	assert.Equal(t, "valid", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"valid": true})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"]
	require.True(t, ok)
	boolVal, isBool := av.(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestIsConditionFailed(t *testing.T) {
	wrapped := fmt.Errorf("update: %w", &types.ConditionalCheckFailedException{})
	assert.True(t, isConditionFailed(wrapped))
	assert.False(t, isConditionFailed(errors.New("throttled")))
}

func TestSortByCreatedDesc(t *testing.T) {
	items := notificationsFixture()
	sortByCreatedDesc(items)
	assert.Equal(t, []string{"c", "b", "a"}, []string{items[0].NotificationID, items[1].NotificationID, items[2].NotificationID})
}
