package auth

import (
	"errors"
	"time"

	"presale/config"
	"presale/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identify an admin panel session.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAdminToken signs a session token valid for cfg.TokenExpiry.
func GenerateAdminToken(cfg *config.AdminConfig, now time.Time) (string, time.Time, error) {
	expires := now.Add(cfg.TokenExpiry)
	claims := Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    cfg.Issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

var ErrInvalidToken = errors.New("invalid token")

func ParseAdminToken(cfg *config.AdminConfig, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(cfg.Issuer))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Role != domain.RoleAdmin {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
