package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAttachmentSignerRoundTrip(t *testing.T) {
	signer := NewAttachmentSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("req-1", "abc_evidence.png")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.After(time.Now()))

	requestID, path, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "req-1", requestID)
	require.Equal(t, "abc_evidence.png", path)
}

func TestAttachmentSignerRejectsTamperedToken(t *testing.T) {
	signer := NewAttachmentSigner("secret", time.Hour)
	token, _, err := signer.Generate("req-1", "abc_evidence.png")
	require.NoError(t, err)

	_, _, err = signer.Parse(token + "0")
	require.Error(t, err)

	other := NewAttachmentSigner("other-secret", time.Hour)
	_, _, err = other.Parse(token)
	require.Error(t, err)
}

func TestAttachmentSignerExpired(t *testing.T) {
	signer := NewAttachmentSigner("secret", time.Millisecond)
	token, _, err := signer.Generate("req-1", "abc_evidence.png")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, _, err = signer.Parse(token)
	require.ErrorContains(t, err, "expired")
}
