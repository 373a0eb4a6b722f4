package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(id string) *Session {
	return &Session{ID: id, values: make(map[string]string)}
}

func TestEnsureTokenIsStablePerSession(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := testSession("sess-1")

	first, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, m.VerifyToken(context.Background(), sess, first))
}

func TestRotateInvalidatesPreviousToken(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := testSession("sess-1")

	old, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)

	fresh, err := m.Rotate(context.Background(), sess)
	require.NoError(t, err)
	assert.NotEqual(t, old, fresh)

	assert.ErrorIs(t, m.VerifyToken(context.Background(), sess, old), ErrCSRFTokenMismatch)
	require.NoError(t, m.VerifyToken(context.Background(), sess, fresh))
}

func TestVerifyTokenRejectsForeignSessionToken(t *testing.T) {
	m := NewCSRFManager("secret")
	alice := testSession("sess-alice")
	bob := testSession("sess-bob")

	aliceToken, err := m.EnsureToken(context.Background(), alice)
	require.NoError(t, err)
	_, err = m.EnsureToken(context.Background(), bob)
	require.NoError(t, err)

	assert.ErrorIs(t, m.VerifyToken(context.Background(), bob, aliceToken), ErrCSRFTokenMismatch)
}

func TestVerifyTokenMissingCases(t *testing.T) {
	m := NewCSRFManager("secret")

	assert.ErrorIs(t, m.VerifyToken(context.Background(), nil, "x"), ErrCSRFTokenMissing)

	sess := testSession("sess-1")
	assert.ErrorIs(t, m.VerifyToken(context.Background(), sess, "x"), ErrCSRFTokenMissing)

	_, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	assert.ErrorIs(t, m.VerifyToken(context.Background(), sess, ""), ErrCSRFTokenMissing)
}
