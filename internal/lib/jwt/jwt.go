package jwt

import (
	"errors"
	"fmt"
	"github.com/IlyasAtabaev731/finance-records/internal/domain/models"
	"github.com/golang-jwt/jwt/v4"
	"strconv"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims carries the user identity. Subject holds the same id as a string.
type Claims struct {
	UID int `json:"uid"`
	jwt.RegisteredClaims
}

// NewToken signs an HS256 token for user. A zero duration produces a token without exp.
func NewToken(user *models.User, jwtSecret []byte, duration time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if duration != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(duration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and time claims and returns the user id.
func ParseToken(tokenString string, secret []byte) (int, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return 0, ErrInvalidToken
	}

	return claims.UID, nil
}
