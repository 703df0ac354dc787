package auth

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

var ErrInvalidToken = errors.New("invalid auth token")

// TokenSigner issues and verifies session tokens carrying a user id.
type TokenSigner interface {
	Issue(userID int64) (string, error)
	Parse(token string) (int64, error)
}

// HMACSigner implements TokenSigner using HMAC-SHA256 signatures over a
// "userID.expiry" payload.
type HMACSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewHMACSigner builds an HMACSigner; a non-positive ttl falls back to 24h.
func NewHMACSigner(secret string, ttl time.Duration) *HMACSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &HMACSigner{secret: []byte(secret), ttl: ttl}
}

// Issue generates a signed session token for the user.
func (s *HMACSigner) Issue(userID int64) (string, error) {
	expires := time.Now().Add(s.ttl).Unix()
	payload := fmt.Sprintf("%d.%d", userID, expires)
	return base64.URLEncoding.EncodeToString([]byte(payload + "." + s.sign(payload))), nil
}

// Parse validates the token and returns the encoded user id.
func (s *HMACSigner) Parse(token string) (int64, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	parts := strings.Split(string(raw), ".")
	if len(parts) != 3 {
		return 0, ErrInvalidToken
	}

	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[2])) {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}

	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}

	if time.Unix(expires, 0).Before(time.Now()) {
		return 0, ErrInvalidToken
	}

	return userID, nil
}

func (s *HMACSigner) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}
