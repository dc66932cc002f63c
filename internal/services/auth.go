package services

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the identity carried by a session token.
type Claims struct {
	UserID string
	Role   string
	Name   string
}

type TokenService struct {
	Secret     []byte
	Issuer     string
	TTL        time.Duration
	BcryptCost int
}

func (t TokenService) HashPassword(raw string) (string, error) {
	cost := t.BcryptCost
	if cost < bcrypt.DefaultCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (t TokenService) VerifyPassword(raw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(raw)) == nil
}

var (
	dummyOnce sync.Once
	dummy     string
)

// dummyHash is compared against when no account matches so that unknown
// identifiers cost the same as wrong passwords.
func (t TokenService) dummyHash() string {
	dummyOnce.Do(func() {
		hashed, _ := bcrypt.GenerateFromPassword([]byte("agrireport-no-such-user"), bcrypt.DefaultCost)
		dummy = string(hashed)
	})
	return dummy
}

// IssueToken signs claims with the configured TTL.
func (t TokenService) IssueToken(c Claims) (string, int64, error) {
	return t.issue(c, time.Now().UTC(), t.TTL)
}

func (t TokenService) issue(c Claims, now time.Time, ttl time.Duration) (string, int64, error) {
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"iss":  t.Issuer,
		"sub":  c.UserID,
		"typ":  "access",
		"role": c.Role,
		"name": c.Name,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.Secret)
	return signed, exp.Unix(), err
}

// VerifyToken rejects expired, tampered or foreign tokens with Unauthorized.
func (t TokenService) VerifyToken(tokenStr string) (Claims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.Secret, nil
	}, jwt.WithIssuer(t.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrUnauthorized("Token expired")
		}
		return Claims{}, ErrUnauthorized("Invalid token")
	}
	if claims["typ"] != "access" {
		return Claims{}, ErrUnauthorized("Invalid token")
	}
	userID, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	name, _ := claims["name"].(string)
	if userID == "" || role == "" {
		return Claims{}, ErrUnauthorized("Invalid token")
	}
	return Claims{UserID: userID, Role: role, Name: name}, nil
}
