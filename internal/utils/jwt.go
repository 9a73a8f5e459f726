package utils

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"agora/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

var ErrBadToken = apperr.New(apperr.CodeUnauthorized, "invalid or expired token")

// JWTVerifier resolves HMAC-signed bearer tokens to a user id. Tokens are
// issued elsewhere; this side only verifies them.
type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (uint, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return 0, ErrBadToken
	}
	id, err := userIDClaim(claims)
	if err != nil {
		return 0, apperr.Wrap(err, apperr.CodeUnauthorized, "invalid or expired token")
	}
	return id, nil
}

// user_id may arrive as a JSON number or a string; sub is the fallback.
func userIDClaim(claims jwt.MapClaims) (uint, error) {
	raw, ok := claims["user_id"]
	if !ok {
		raw, ok = claims["sub"]
	}
	if !ok {
		return 0, fmt.Errorf("token has no user id")
	}
	switch v := raw.(type) {
	case float64:
		if v <= 0 {
			return 0, fmt.Errorf("user id %v out of range", v)
		}
		return uint(v), nil
	case string:
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return 0, fmt.Errorf("user id %q is not numeric", v)
		}
		return uint(n), nil
	}
	return 0, fmt.Errorf("user id has type %T", raw)
}

// SignToken mints a token the verifier accepts. The API never issues
// tokens; this serves tests and local tooling.
func SignToken(secret, issuer string, userID uint, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": strconv.FormatUint(uint64(userID), 10),
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	if issuer != "" {
		claims["iss"] = issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
