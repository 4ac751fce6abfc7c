package service

import (
	"testing"
	"time"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/app/config"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer(config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := testIssuer()
	acct := &entity.Account{
		ID:       primitive.NewObjectID(),
		Email:    "diner@example.com",
		FullName: "Test Diner",
		Role:     entity.RoleCustomer,
	}

	token, err := issuer.IssueAccessToken(acct)
	require.NoError(t, err)

	claims, err := issuer.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, acct.ID.Hex(), claims.Subject)
	assert.Equal(t, acct.Email, claims.Email)
	assert.Equal(t, acct.FullName, claims.FullName)
	assert.Equal(t, entity.RoleCustomer, claims.Role)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	issuer := testIssuer()
	accountID := primitive.NewObjectID()

	token, err := issuer.IssueRefreshToken(accountID)
	require.NoError(t, err)

	got, err := issuer.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, accountID, got)
}

func TestAccessTokenRejectedByOtherSecret(t *testing.T) {
	issuer := testIssuer()
	other := NewTokenIssuer(config.JWTConfig{
		AccessSecret:  "different-secret",
		RefreshSecret: "different-refresh",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	})

	token, err := issuer.IssueAccessToken(&entity.Account{ID: primitive.NewObjectID()})
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestRefreshTokenNotValidAsAccessToken(t *testing.T) {
	issuer := testIssuer()

	token, err := issuer.IssueRefreshToken(primitive.NewObjectID())
	require.NoError(t, err)

	_, err = issuer.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	expired := NewTokenIssuer(config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     -time.Minute,
		RefreshTTL:    time.Hour,
	})

	token, err := expired.IssueAccessToken(&entity.Account{ID: primitive.NewObjectID()})
	require.NoError(t, err)

	_, err = expired.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	issuer := testIssuer()

	_, err := issuer.VerifyAccessToken("not-a-jwt")
	assert.Error(t, err)

	_, err = issuer.VerifyRefreshToken("")
	assert.Error(t, err)
}
