package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewAccessTokenRoundTrip(t *testing.T) {
    const secret = "test-secret"

    tok, err := NewAccessToken(secret, 42, "TUTOR", 15)
    require.NoError(t, err)
    assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

    parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    })
    require.NoError(t, err)
    require.True(t, parsed.Valid)

    claims, ok := parsed.Claims.(jwt.MapClaims)
    require.True(t, ok)
    assert.Equal(t, float64(42), claims["sub"])
    assert.Equal(t, "TUTOR", claims["role"])
}

func TestNewAccessTokenRejectsWrongSecret(t *testing.T) {
    tok, err := NewAccessToken("right", 1, "STUDENT", 5)
    require.NoError(t, err)

    _, err = jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) {
        return []byte("wrong"), nil
    })
    assert.Error(t, err)
}

func TestRefreshTokenHashing(t *testing.T) {
    a, err := NewRefreshToken(7)
    require.NoError(t, err)
    b, err := NewRefreshToken(7)
    require.NoError(t, err)

    assert.NotEqual(t, a.Raw, b.Raw)
    assert.Len(t, HashRefreshRaw(a.Raw), 64)
    // hashing is deterministic so the stored hash matches on validation
    assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
    assert.NotEqual(t, HashRefreshRaw(a.Raw), HashRefreshRaw(b.Raw))
}

func TestPasswordHashing(t *testing.T) {
    hash, err := HashPassword("s3cret", 4)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, "s3cret"))
    assert.False(t, VerifyPassword(hash, "wrong"))
}
