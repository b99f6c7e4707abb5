package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidRole(t *testing.T) {
	for _, r := range ValidRoles() {
		assert.True(t, IsValidRole(r), "expected %q to be valid", r)
	}
	assert.False(t, IsValidRole("admin"))
	assert.False(t, IsValidRole(""))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("INACTIVE")
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, s)

	_, err = ParseStatus("deleted")
	assert.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusActive, StatusInactive))
	assert.True(t, CanTransition(StatusInactive, StatusActive))
	assert.True(t, CanTransition(StatusActive, StatusActive))
	assert.False(t, CanTransition(StatusActive, StatusFrozen))
	assert.False(t, CanTransition(StatusInactive, StatusFrozen))
}

func TestFreezeAndActivate(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	u := &User{Status: StatusActive}

	require.NoError(t, u.Freeze(now))
	assert.Equal(t, StatusInactive, u.Status)
	require.NotNil(t, u.FrozenAt)
	assert.Equal(t, now, *u.FrozenAt)

	assert.ErrorIs(t, u.Freeze(now), ErrInvalidTransition)

	require.NoError(t, u.Activate())
	assert.Equal(t, StatusActive, u.Status)
	assert.Nil(t, u.FrozenAt)
}

func TestDisable_ClearsFreeze(t *testing.T) {
	frozen := time.Now()
	u := &User{Status: StatusInactive, FrozenAt: &frozen}

	require.NoError(t, u.Disable())
	assert.Equal(t, StatusInactive, u.Status)
	assert.Nil(t, u.FrozenAt)
}

func TestDecideLogin(t *testing.T) {
	now := time.Date(2026, 5, 31, 9, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time { t := now.Add(-d); return &t }

	tests := []struct {
		name string
		user User
		want LoginDecision
	}{
		{"active", User{Status: StatusActive}, LoginAllowed},
		{"frozen 10 days", User{Status: StatusInactive, FrozenAt: ago(10 * 24 * time.Hour)}, LoginReactivate},
		{"frozen just inside", User{Status: StatusInactive, FrozenAt: ago(FreezeRetention - time.Second)}, LoginReactivate},
		{"frozen exactly 30 days", User{Status: StatusInactive, FrozenAt: ago(FreezeRetention)}, LoginDisabled},
		{"frozen 31 days", User{Status: StatusInactive, FrozenAt: ago(31 * 24 * time.Hour)}, LoginDisabled},
		{"admin disabled", User{Status: StatusInactive}, LoginDisabled},
		{"frozen status", User{Status: StatusFrozen}, LoginDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.DecideLogin(now))
		})
	}
}

func TestDueForDeletion(t *testing.T) {
	now := time.Now()
	old := now.Add(-31 * 24 * time.Hour)
	recent := now.Add(-10 * 24 * time.Hour)

	assert.True(t, (&User{Status: StatusInactive, FrozenAt: &old}).DueForDeletion(now))
	assert.False(t, (&User{Status: StatusInactive, FrozenAt: &recent}).DueForDeletion(now))
	assert.False(t, (&User{Status: StatusInactive}).DueForDeletion(now))
	assert.False(t, (&User{Status: StatusActive, FrozenAt: &old}).DueForDeletion(now))
}

func TestRefreshToken_Live(t *testing.T) {
	now := time.Now()
	tok := RefreshToken{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, tok.Live(now))
	assert.False(t, tok.Live(now.Add(time.Minute)))
}

func TestParsePurpose(t *testing.T) {
	p, err := ParsePurpose("")
	require.NoError(t, err)
	assert.Equal(t, PurposeView, p)

	p, err = ParsePurpose("update")
	require.NoError(t, err)
	assert.Equal(t, PurposeUpdate, p)

	_, err = ParsePurpose("recovery")
	assert.Error(t, err)
	_, err = ParsePurpose("delete")
	assert.Error(t, err)
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("+44 7400 123456", "")
	require.NoError(t, err)
	assert.Equal(t, "+447400123456", got)

	got, err = NormalizePhone("07400 123456", "gb")
	require.NoError(t, err)
	assert.Equal(t, "+447400123456", got)

	got, err = NormalizePhone("(201) 555-0123", "US")
	require.NoError(t, err)
	assert.Equal(t, "+12015550123", got)

	for _, bad := range []string{"", "12", "not a phone", "+1 000"} {
		_, err := NormalizePhone(bad, "US")
		assert.ErrorIs(t, err, ErrInvalidPhone, bad)
	}
}
