package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const tokenVersion = "v1"

var (
	// ErrInvalidToken covers malformed tokens and signature mismatches.
	ErrInvalidToken = errors.New("invalid download token")
	// ErrExpiredToken is returned once a token's expiry has passed.
	ErrExpiredToken = errors.New("download token expired")
)

// SignedURLSigner issues HMAC-SHA256 download tokens binding a job id to a
// stored file. Token layout: v1.<job>.<unix expiry>.<b64 path>.<b64 mac>.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer. A non-positive ttl defaults to 24h.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns how long issued tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Generate returns a token for jobID and relPath and its expiry.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("jobID and relPath required")
	}
	if strings.Contains(jobID, ".") {
		return "", time.Time{}, fmt.Errorf("jobID must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	body := strings.Join([]string{
		tokenVersion,
		jobID,
		strconv.FormatInt(expiresAt.Unix(), 10),
		base64.RawURLEncoding.EncodeToString([]byte(relPath)),
	}, ".")
	return body + "." + s.sign(body), expiresAt, nil
}

// Parse verifies a token and returns its claims. allowExpired skips the expiry
// check so cleanup can still locate files behind stale tokens.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	cut := strings.LastIndexByte(token, '.')
	if cut <= 0 {
		return "", "", time.Time{}, ErrInvalidToken
	}
	body, mac := token[:cut], token[cut+1:]
	if !hmac.Equal([]byte(s.sign(body)), []byte(mac)) {
		return "", "", time.Time{}, ErrInvalidToken
	}

	parts := strings.Split(body, ".")
	if len(parts) != 4 || parts[0] != tokenVersion {
		return "", "", time.Time{}, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrInvalidToken
	}
	path, err := base64.RawURLEncoding.DecodeString(parts[3])
	if err != nil {
		return "", "", time.Time{}, ErrInvalidToken
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrExpiredToken
	}
	return parts[1], string(path), expiresAt, nil
}

func (s *SignedURLSigner) sign(body string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
