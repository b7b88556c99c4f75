package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"warehouse-be/internal/apperr"
	"warehouse-be/internal/db"
)

const refreshTokenBytes = 48

var ErrInvalidRefreshToken = apperr.Unauthorized("invalid refresh token")

// RefreshTokens issues opaque refresh secrets and stores only their keyed
// hash. A stored token is active while revoked_at is null and expires_at is
// in the future.
type RefreshTokens struct {
	salt []byte
	ttl  time.Duration
	now  func() time.Time
	rand io.Reader
}

func NewRefreshTokens(salt string, ttl time.Duration) *RefreshTokens {
	return &RefreshTokens{salt: []byte(salt), ttl: ttl, now: time.Now, rand: rand.Reader}
}

// Hash returns the hex HMAC-SHA256 of raw keyed by the configured salt.
func (t *RefreshTokens) Hash(raw string) string {
	mac := hmac.New(sha256.New, t.salt)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// Issue stores a fresh token for userID and returns the raw secret. The raw
// value is never persisted.
func (t *RefreshTokens) Issue(ctx context.Context, q db.DBTX, userID int64) (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := io.ReadFull(t.rand, buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)

	now := t.now().UTC()
	_, err := q.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		userID, t.Hash(raw), now, now.Add(t.ttl),
	)
	if err != nil {
		return "", fmt.Errorf("insert refresh token: %w", err)
	}
	return raw, nil
}

// Rotate revokes an active token and returns its owner. Unknown, revoked and
// expired tokens all yield ErrInvalidRefreshToken. The check and the revoke
// are a single statement so a token can be used at most once.
func (t *RefreshTokens) Rotate(ctx context.Context, q db.DBTX, raw string) (int64, error) {
	if raw == "" {
		return 0, ErrInvalidRefreshToken
	}

	var userID int64
	err := q.QueryRowContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = $2
		 WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2
		 RETURNING user_id`,
		t.Hash(raw), t.now().UTC(),
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInvalidRefreshToken
	}
	if err != nil {
		return 0, fmt.Errorf("rotate refresh token: %w", err)
	}
	return userID, nil
}

// Revoke marks an active token revoked. Unknown or already revoked tokens are
// a silent no-op.
func (t *RefreshTokens) Revoke(ctx context.Context, q db.DBTX, raw string) error {
	if raw == "" {
		return nil
	}
	_, err := q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = $2
		 WHERE token_hash = $1 AND revoked_at IS NULL`,
		t.Hash(raw), t.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
