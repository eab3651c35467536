package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, expiresAt, err := signer.Generate("ver-1", "ver-1.pdf")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	versionID, key, _, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "ver-1", versionID)
	require.Equal(t, "ver-1.pdf", key)
}

func TestSignedURLRejectsTamperedToken(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, _, err := signer.Generate("ver-1", "ver-1.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token+"x", false)
	require.Error(t, err)
}

func TestSignedURLExpiry(t *testing.T) {
	signer := NewSignedURLSigner("secret", -time.Minute)
	signer.ttl = -time.Minute

	token, _, err := signer.Generate("ver-1", "ver-1.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	_, _, _, err = signer.Parse(token, true)
	require.NoError(t, err)
}

func TestKeyFor(t *testing.T) {
	require.Equal(t, "v1.pdf", KeyFor("v1", "application/pdf"))
	require.Equal(t, "v1.jpg", KeyFor("v1", "image/jpeg"))
	require.Equal(t, "v1.bin", KeyFor("v1", "application/octet-stream"))
}
