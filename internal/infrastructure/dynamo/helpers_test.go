package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-band-notify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"platform": "ios"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "platform"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"recipient_id": "u1",
		"last_seen":    int64(1700000000000),
		"platform":     "android",
	}
	// Call twice to verify determinism.
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)

	// Keys must be sorted: last_seen < platform < recipient_id
	assert.Equal(t, "last_seen", ue1.Names["#f0"])
	assert.Equal(t, "platform", ue1.Names["#f1"])
	assert.Equal(t, "recipient_id", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"active": true})
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

func TestPageKey_RoundTrip(t *testing.T) {
	k := pageKey{NotificationID: "01HX", RecipientID: "u1", CreatedAt: 1700000000000}
	got, err := decodePageKey(encodePageKey(k))
	require.NoError(t, err)
	assert.Equal(t, k, got)

	attrs := got.attributes()
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1700000000000"}, attrs[attrCreatedAt])

	_, err = decodePageKey("e30")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
