// Package oauth signs one-legged OAuth 1.0 requests with HMAC-SHA1.
//
// Only URLs without query parameters are supported; request parameters are
// not merged into the signature base string.
package oauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	signatureMethod = "HMAC-SHA1"
	version         = "1.0"
	nonceSize       = 24
)

// Signer builds OAuth Authorization headers for a consumer key/secret pair.
type Signer struct {
	Key    string
	Secret string

	// Now and Rand default to time.Now and crypto/rand.
	Now  func() time.Time
	Rand io.Reader
}

// New creates a Signer for a consumer key and secret.
func New(key, secret string) *Signer {
	return &Signer{Key: key, Secret: secret}
}

// Header returns the Authorization header value for a request.
func (s *Signer) Header(method, rawURL string) (string, error) {
	nonce, err := s.Nonce()
	if err != nil {
		return "", err
	}
	timestamp := strconv.FormatInt(s.now().Unix(), 10)

	signature := Signature(s.Secret, s.BaseString(method, rawURL, nonce, timestamp))
	return s.header(nonce, signature, timestamp), nil
}

// BaseString returns the signature base string for the fixed OAuth parameter set.
func (s *Signer) BaseString(method, rawURL, nonce, timestamp string) string {
	params := "oauth_consumer_key=" + Escape(s.Key) +
		"&oauth_nonce=" + Escape(nonce) +
		"&oauth_signature_method=" + signatureMethod +
		"&oauth_timestamp=" + timestamp +
		"&oauth_version=" + version

	return strings.ToUpper(method) + "&" + Escape(rawURL) + "&" + Escape(params)
}

// Nonce returns 24 random bytes encoded as standard base64.
func (s *Signer) Nonce() (string, error) {
	r := s.Rand
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, nonceSize)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (s *Signer) header(nonce, signature, timestamp string) string {
	fields := []struct{ name, value string }{
		{"oauth_consumer_key", s.Key},
		{"oauth_nonce", nonce},
		{"oauth_signature", signature},
		{"oauth_signature_method", signatureMethod},
		{"oauth_timestamp", timestamp},
		{"oauth_version", version},
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%q", f.name, Escape(f.value)))
	}
	return "OAuth " + strings.Join(parts, ", ")
}

func (s *Signer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Signature returns base64(HMAC-SHA1(secret&, base)).
func Signature(secret, base string) string {
	return HMACSHA1(Escape(secret)+"&", base)
}

// HMACSHA1 returns the base64-encoded HMAC-SHA1 of message under key.
func HMACSHA1(key, message string) string {
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Escape percent-encodes s per RFC 3986, leaving only unreserved characters.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
