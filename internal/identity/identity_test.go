package identity

import (
	"testing"
	"time"

	"easydrive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAccess(t *testing.T) {
	ownRes := &models.Reservation{ID: "r1", AccountID: 7}
	otherRes := &models.Reservation{ID: "r2", AccountID: 8}
	guestRes := &models.Reservation{ID: "r3", GuestEmail: "guest@example.com"}

	admin := Caller{Authenticated: true, Admin: true, AccountID: 1}
	holder := Caller{Authenticated: true, AccountID: 7}
	guest := Caller{Email: "Guest@Example.COM"}
	anonymous := Caller{}

	assert.True(t, admin.CanAccess(ownRes))
	assert.True(t, admin.CanAccess(otherRes))
	assert.True(t, admin.CanAccess(guestRes))

	assert.True(t, holder.CanAccess(ownRes))
	assert.False(t, holder.CanAccess(otherRes))
	assert.False(t, holder.CanAccess(guestRes))

	// guest email match is case-insensitive
	assert.True(t, guest.CanAccess(guestRes))
	assert.False(t, guest.CanAccess(ownRes))

	assert.False(t, anonymous.CanAccess(guestRes))
	assert.False(t, anonymous.CanAccess(ownRes))
}

func TestIsHolder(t *testing.T) {
	res := &models.Reservation{ID: "r1", AccountID: 7}

	admin := Caller{Authenticated: true, Admin: true, AccountID: 1}
	holder := Caller{Authenticated: true, AccountID: 7}

	assert.False(t, admin.IsHolder(res))
	assert.True(t, holder.IsHolder(res))
}

func TestTokenRoundTrip(t *testing.T) {
	secret := "test_secret"

	raw, err := NewToken(secret, 42, "user@example.com", true, time.Hour)
	require.NoError(t, err)

	caller, err := ParseToken(secret, raw)
	require.NoError(t, err)

	assert.True(t, caller.Authenticated)
	assert.True(t, caller.Admin)
	assert.Equal(t, int64(42), caller.AccountID)
	assert.Equal(t, "user@example.com", caller.Email)
}

func TestParseTokenRejects(t *testing.T) {
	secret := "test_secret"

	t.Run("WrongSecret", func(t *testing.T) {
		raw, err := NewToken(secret, 1, "a@b.c", false, time.Hour)
		require.NoError(t, err)
		_, err = ParseToken("other_secret", raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := ParseToken(secret, "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		raw, err := NewToken(secret, 1, "a@b.c", false, -time.Minute)
		require.NoError(t, err)
		_, err = ParseToken(secret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
