package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectRoundTrip(t *testing.T) {
	cases := []struct {
		identity Identity
		subject  string
	}{
		{Identity{Role: RoleDoctor, ID: 1}, "D1"},
		{Identity{Role: RolePatient, ID: 42}, "P42"},
		{Identity{Role: RoleDoctor, ID: 9000}, "D9000"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.subject, tc.identity.Subject())

		parsed, err := ParseSubject(tc.subject)
		require.NoError(t, err)
		assert.Equal(t, tc.identity, parsed)
	}
}

func TestParseSubjectRejectsMalformed(t *testing.T) {
	for _, sub := range []string{"", "D", "P", "X12", "12", "Dabc", "D-5", "D0"} {
		_, err := ParseSubject(sub)
		assert.ErrorIs(t, err, ErrInvalidSubject, "subject %q", sub)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)

	want := Identity{Role: RolePatient, ID: 17}
	token, err := issuer.Issue(want)
	require.NoError(t, err)

	got, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Minute)
	other := NewTokenIssuer("secret-b", time.Minute)

	token, err := issuer.Issue(Identity{Role: RoleDoctor, ID: 3})
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Issue(Identity{Role: RoleDoctor, ID: 3})
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)

	_, err := issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
