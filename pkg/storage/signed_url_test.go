package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("job-1", "exports/card_all.csv")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(token, "v1.job-1."))

	jobID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "job-1", jobID)
	require.Equal(t, "exports/card_all.csv", path)
	require.True(t, expiresAt.Equal(parsedExpiry))
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	issued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }
	token, _, err := signer.Generate("job-1", "card.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, _, _, err = signer.Parse(token, false)
	require.ErrorIs(t, err, ErrExpiredToken)

	jobID, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "job-1", jobID)
	require.Equal(t, "card.csv", path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("job-1", "card.csv")
	require.NoError(t, err)

	forged := strings.Replace(token, "job-1", "job-2", 1)
	_, _, _, err = signer.Parse(forged, false)
	require.ErrorIs(t, err, ErrInvalidToken)

	other := NewSignedURLSigner("other", time.Hour)
	_, _, _, err = other.Parse(token, false)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, _, _, err = signer.Parse("garbage", false)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignedURLSignerRejectsDottedJobID(t *testing.T) {
	_, _, err := NewSignedURLSigner("secret", time.Hour).Generate("a.b", "card.csv")
	require.Error(t, err)
}

func TestSignedURLSignerDefaultTTL(t *testing.T) {
	require.Equal(t, 24*time.Hour, NewSignedURLSigner("secret", 0).TTL())
	require.Equal(t, time.Hour, NewSignedURLSigner("secret", time.Hour).TTL())
}
