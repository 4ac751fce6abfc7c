package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/app/config"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/domain/entity"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errInvalidToken = errors.New("token is invalid")

// AccessClaims ride in short-lived access tokens. Subject is the account id.
type AccessClaims struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the access/refresh token pair. It is
// stateless: rotation bookkeeping lives in the account store.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenIssuer(cfg config.JWTConfig) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

func (t *TokenIssuer) IssueAccessToken(acct *entity.Account) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email:    acct.Email,
		FullName: acct.FullName,
		Role:     acct.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
}

func (t *TokenIssuer) IssueRefreshToken(accountID primitive.ObjectID) (string, error) {
	now := time.Now()
	claims := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.refreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
}

func (t *TokenIssuer) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := t.parse(tokenString, claims, t.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (t *TokenIssuer) VerifyRefreshToken(tokenString string) (primitive.ObjectID, error) {
	claims := &refreshClaims{}
	if err := t.parse(tokenString, claims, t.refreshSecret); err != nil {
		return primitive.NilObjectID, err
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, errInvalidToken
	}
	return id, nil
}

func (t *TokenIssuer) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !token.Valid {
		return errInvalidToken
	}
	return nil
}
