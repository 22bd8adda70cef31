package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "wellfile/pkg/domain"
	dErrors "wellfile/pkg/domain-errors"
	"wellfile/pkg/platform/audit"
	"wellfile/pkg/platform/audit/publisher"
	auditmemory "wellfile/pkg/platform/audit/store/memory"
)

const testKey = "test-signing-key"

func TestIssueAndValidate(t *testing.T) {
	svc := New(testKey, time.Hour)
	operatorID := id.NewOperatorID()

	tokenString, expiresIn, err := svc.Issue(context.Background(), operatorID, "Lonestar Plugging")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)
	assert.Equal(t, time.Hour, expiresIn)

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, operatorID.String(), claims.Subject)
	assert.Equal(t, "Lonestar Plugging", claims.OperatorName)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := New(testKey, time.Hour)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_Expired(t *testing.T) {
	svc := New(testKey, time.Millisecond)

	tokenString, _, err := svc.Issue(context.Background(), id.NewOperatorID(), "")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.ValidateToken(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateToken_WrongKey(t *testing.T) {
	issued, _, err := New("other-key", time.Hour).Issue(context.Background(), id.NewOperatorID(), "")
	require.NoError(t, err)

	_, err = New(testKey, time.Hour).ValidateToken(issued)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_WrongAudience(t *testing.T) {
	svc := New(testKey, time.Hour)

	now := time.Now()
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.NewOperatorID().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "wellfile",
			Audience:  []string{"some-other-api"},
			ID:        uuid.NewString(),
		},
	})
	signed, err := foreign.SignedString([]byte(testKey))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	require.Error(t, err, "tokens minted for other audiences are rejected")
}

func TestValidateToken_UnsignedAlgRejected(t *testing.T) {
	svc := New(testKey, time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.NewOperatorID().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "wellfile",
			Audience:  []string{"wellfile-api"},
		},
	})
	signed, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	require.Error(t, err, "alg none never passes")
}

func TestIssue_EmitsAuditEvent(t *testing.T) {
	auditStore := auditmemory.NewInMemoryStore()
	pub := publisher.NewPublisher(auditStore)
	defer pub.Close()

	svc := New(testKey, time.Hour, WithAuditPublisher(pub))
	operatorID := id.NewOperatorID()

	_, _, err := svc.Issue(context.Background(), operatorID, "Lonestar")
	require.NoError(t, err)

	events, err := auditStore.ListByAction(context.Background(), string(audit.EventTokenIssued))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, operatorID.String(), events[0].ActorID)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
}

func TestValidator_AdaptsClaims(t *testing.T) {
	svc := New(testKey, time.Hour)
	operatorID := id.NewOperatorID()

	tokenString, _, err := svc.Issue(context.Background(), operatorID, "Lonestar")
	require.NoError(t, err)

	claims, err := NewValidator(svc).ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, operatorID.String(), claims.OperatorID)
	assert.Equal(t, "Lonestar", claims.OperatorName)
}
