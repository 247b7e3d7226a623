package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AttachmentSigner mints and validates short-lived download tokens for
// completion-evidence attachments. Tokens are self-contained, so the download
// endpoint never needs a database round trip.
type AttachmentSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewAttachmentSigner constructs a signer with the provided secret and TTL.
func NewAttachmentSigner(secret string, ttl time.Duration) *AttachmentSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AttachmentSigner{secret: []byte(secret), ttl: ttl}
}

// Generate returns a signed token binding the completion request to one of its
// stored attachment paths, plus the token's expiry.
func (s *AttachmentSigner) Generate(requestID, relPath string) (string, time.Time, error) {
	if requestID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("requestID and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	signature := s.sign(requestID, strconv.FormatInt(expiresAt.Unix(), 10), encodedPath)
	token := strings.Join([]string{requestID, strconv.FormatInt(expiresAt.Unix(), 10), encodedPath, signature}, ".")
	return token, expiresAt, nil
}

// Parse validates a token's signature and expiry, returning the embedded
// request id and attachment path.
func (s *AttachmentSigner) Parse(token string) (requestID, relPath string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", fmt.Errorf("invalid token format")
	}
	requestID, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", fmt.Errorf("decode path: %w", err)
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("invalid timestamp")
	}

	expected := s.sign(requestID, ts, encodedPath)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", fmt.Errorf("invalid token signature")
	}
	if time.Now().After(time.Unix(expUnix, 0)) {
		return "", "", fmt.Errorf("token expired")
	}
	return requestID, string(rawPath), nil
}

func (s *AttachmentSigner) sign(requestID, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s", requestID, ts, encodedPath)
	return hex.EncodeToString(mac.Sum(nil))
}
