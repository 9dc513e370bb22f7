package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

const accessTokenTTL = 2 * time.Hour

// opaqueTokenBytes gives 256 bits of entropy per confirmation token, enough
// to treat collisions as negligible.
const opaqueTokenBytes = 32

// TokenIssuer signs access tokens with a process-wide symmetric key. The key
// is loaded once at startup and never logged.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// IssueAccessToken returns a signed HS256 token carrying the user id as
// subject and the role as a claim, expiring after a fixed two hours.
func (t *TokenIssuer) IssueAccessToken(userID uuid.UUID, role domain.Role) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"exp":  time.Now().Add(accessTokenTTL).Unix(),
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tkn.SignedString(t.secret)
}

// GenerateOpaqueToken returns a URL-safe random string from a
// cryptographically secure source.
func GenerateOpaqueToken() (string, error) {
	b := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("opaque token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
