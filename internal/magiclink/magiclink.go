// internal/magiclink/magiclink.go

// Package magiclink issues single-use re-entry tokens for applications
// returned to the applicant. Tokens live in Redis under a TTL; expiry is
// enforced by the key's lifetime, not by the engine.
package magiclink

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	apperrors "childminder-review/internal/common/errors"
	"childminder-review/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "magiclink:"

// Token is an opaque re-entry credential with its epoch-seconds expiry.
type Token struct {
	Value     string `json:"token"`
	IssuedAt  int64  `json:"issuedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Issuer generates and resolves magic-link tokens.
type Issuer struct {
	redis  *redis.Client
	ttl    time.Duration
	length int // hex characters
	logger logger.Logger
}

func NewIssuer(client *redis.Client, ttl time.Duration, length int, log logger.Logger) *Issuer {
	if length <= 0 {
		length = 32
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Issuer{
		redis:  client,
		ttl:    ttl,
		length: length,
		logger: log.WithFields(map[string]interface{}{"component": "magiclink"}),
	}
}

// Issue creates a fresh token for the application and stores it under the
// configured TTL. Issuing again for the same application yields a new,
// independent token; older tokens die by expiry.
func (i *Issuer) Issue(ctx context.Context, applicationID string) (*Token, error) {
	buf := make([]byte, (i.length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("token generation failed: %w", err)
	}
	value := hex.EncodeToString(buf)[:i.length]

	if err := i.redis.Set(ctx, keyPrefix+value, applicationID, i.ttl).Err(); err != nil {
		return nil, apperrors.NewPersistenceError("store magic link", err)
	}

	now := time.Now().UTC()
	i.logger.Info("magic link issued", map[string]interface{}{
		"applicationId": applicationID,
		"expiresAt":     now.Add(i.ttl).Unix(),
	})

	return &Token{
		Value:     value,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(i.ttl).Unix(),
	}, nil
}

// Resolve returns the application id a live token points at. Expired and
// unknown tokens are indistinguishable.
func (i *Issuer) Resolve(ctx context.Context, value string) (string, error) {
	applicationID, err := i.redis.Get(ctx, keyPrefix+value).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.NewRecordNotFoundError("magic link", value)
	}
	if err != nil {
		return "", apperrors.NewPersistenceError("resolve magic link", err)
	}
	return applicationID, nil
}

// Revoke deletes a token ahead of its expiry, making the link single-use.
func (i *Issuer) Revoke(ctx context.Context, value string) error {
	if err := i.redis.Del(ctx, keyPrefix+value).Err(); err != nil {
		return apperrors.NewPersistenceError("revoke magic link", err)
	}
	return nil
}
