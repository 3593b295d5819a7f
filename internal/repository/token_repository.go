package repository

import (
    "context"
    "database/sql"
    "time"
)

// TokenRepo persists refresh tokens.  Only the SHA-256 hash of a token
// ever reaches this layer; revocation is a tombstone timestamp so a
// replayed token can be told apart from one that never existed.
type TokenRepo struct {
    db *sql.DB
}

// NewTokenRepo returns a new TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh records a refresh token hash with its expiry instant.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
    const q = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q, userID, tokenHash, exp.UTC().Format("2006-01-02 15:04:05"))
    return err
}

// ValidateRefresh resolves a token hash to its owner.  Revoked and
// expired tokens report sql.ErrNoRows, same as unknown ones, so callers
// cannot distinguish the cases.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
    const q = `SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ? LIMIT 1`
    var (
        userID    uint64
        expiresAt time.Time
        revokedAt sql.NullTime
    )
    err := r.db.QueryRowContext(ctx, q, tokenHash).Scan(&userID, &expiresAt, &revokedAt)
    if err != nil {
        return 0, err
    }
    if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
        return 0, sql.ErrNoRows
    }
    return userID, nil
}

// RevokeByHash tombstones a single token.  Already-revoked tokens are
// left untouched so the original revocation instant survives.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
    const q = `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE token_hash = ? AND revoked_at IS NULL`
    _, err := r.db.ExecContext(ctx, q, tokenHash)
    return err
}

// RevokeAllForUser tombstones every live token the user holds, ending
// all their sessions at once.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
    const q = `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE user_id = ? AND revoked_at IS NULL`
    _, err := r.db.ExecContext(ctx, q, userID)
    return err
}
