package crypto

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndRecoverRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("hello digichain"))
	sig, err := Sign(digest, key)
	require.NoError(t, err)

	recovered, err := Recover(digest, sig)
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address(), recovered)
}

func TestVerifyTestModeAcceptsAnyNonZeroSignature(t *testing.T) {
	prev := TestMode
	TestMode = true
	defer func() { TestMode = prev }()

	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	digest := sha256.Sum256([]byte("msg"))
	sig, err := Sign(digest, key)
	require.NoError(t, err)

	require.True(t, Verify(sig, digest, key.PubKey().Address()))
}
