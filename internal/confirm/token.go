// Package confirm issues and checks the signed tokens a client replays to
// confirm a status conflict it was shown.
package confirm

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/premik/internal/model"
)

// TokenExpiry is how long a client has to confirm a conflict.
const TokenExpiry = 15 * time.Minute

const issuer = "premik"

// ErrMismatch is returned when a valid token was issued for a different
// record, status or snapshot than the one being confirmed.
var ErrMismatch = errors.New("confirmation does not match the pending change")

// Claims binds a confirmation to the conflict it answers.
type Claims struct {
	RecordID       int64              `json:"record_id"`
	DesiredStatus  model.RecordStatus `json:"desired_status"`
	ResolvedStatus model.RecordStatus `json:"resolved_status"`
	Fingerprint    string             `json:"fingerprint"`
	jwt.RegisteredClaims
}

// IssueToken signs a confirmation for conflict c on the record snapshot
// identified by fingerprint.
func IssueToken(secret string, recordID int64, c *model.Conflict, fingerprint string, now time.Time) (string, error) {
	if c == nil {
		return "", fmt.Errorf("no conflict to confirm")
	}

	claims := Claims{
		RecordID:       recordID,
		DesiredStatus:  c.DesiredStatus,
		ResolvedStatus: c.ResolvedStatus,
		Fingerprint:    fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(recordID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a confirmation token's signature and expiry.
func ParseToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// Verify checks that tokenStr confirms exactly conflict c on the given
// record snapshot.
func Verify(secret, tokenStr string, recordID int64, c *model.Conflict, fingerprint string) error {
	claims, err := ParseToken(secret, tokenStr)
	if err != nil {
		return err
	}
	if c == nil ||
		claims.RecordID != recordID ||
		claims.DesiredStatus != c.DesiredStatus ||
		claims.ResolvedStatus != c.ResolvedStatus ||
		claims.Fingerprint != fingerprint {
		return ErrMismatch
	}
	return nil
}
