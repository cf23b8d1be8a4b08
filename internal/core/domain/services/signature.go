package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultClockSkew bounds how far a signature timestamp may drift from the local clock.
const DefaultClockSkew = 5 * time.Minute

var (
	ErrSignatureMissing   = errors.New("signature missing")
	ErrSignatureMalformed = errors.New("signature must be hex or base64 encoded")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrSecretMissing      = errors.New("signing secret missing")
	ErrTimestampInvalid   = errors.New("signature timestamp invalid")
	ErrTimestampSkew      = errors.New("signature timestamp outside allowed window")
)

// SignatureVerifier checks HMAC-SHA256 signatures of vendor webhooks.
//
// The signed message is the timestamp header, a dot and the raw request body:
//
//	hex(hmac_sha256(secret, timestamp + "." + body))
//
// Vendors may send the digest hex or base64 encoded, optionally prefixed with "sha256=".
// Timestamps are unix seconds or RFC 3339.
type SignatureVerifier struct {
	clockSkew time.Duration
	now       func() time.Time
}

// SignatureOption customises a SignatureVerifier.
type SignatureOption func(*SignatureVerifier)

// WithClockSkew overrides DefaultClockSkew. Non-positive values are ignored.
func WithClockSkew(d time.Duration) SignatureOption {
	return func(v *SignatureVerifier) {
		if d > 0 {
			v.clockSkew = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) SignatureOption {
	return func(v *SignatureVerifier) {
		if now != nil {
			v.now = now
		}
	}
}

func NewSignatureVerifier(opts ...SignatureOption) SignatureVerifier {
	v := SignatureVerifier{
		clockSkew: DefaultClockSkew,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&v)
		}
	}
	return v
}

// Verify returns nil only when signature is a valid digest of timestamp and payload
// under secret and the timestamp lies within the allowed skew.
func (v SignatureVerifier) Verify(secret []byte, timestamp string, payload []byte, signature string) error {
	if len(secret) == 0 {
		return ErrSecretMissing
	}

	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if signature == "" {
		return ErrSignatureMissing
	}

	timestamp = strings.TrimSpace(timestamp)
	signedAt, err := ParseSignatureTimestamp(timestamp)
	if err != nil {
		return err
	}
	now := v.now
	if now == nil {
		now = time.Now
	}
	skew := v.clockSkew
	if skew <= 0 {
		skew = DefaultClockSkew
	}
	if drift := now().Sub(signedAt); drift > skew || drift < -skew {
		return fmt.Errorf("%w: drift %s", ErrTimestampSkew, drift.Round(time.Second))
	}

	candidates := decodeSignature(signature)
	if len(candidates) == 0 {
		return ErrSignatureMalformed
	}

	expected := computeSignature(secret, timestamp, payload)
	for _, candidate := range candidates {
		if hmac.Equal(candidate, expected) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

// Sign returns the hex digest a vendor would send for payload at timestamp.
func Sign(secret []byte, timestamp string, payload []byte) string {
	return hex.EncodeToString(computeSignature(secret, timestamp, payload))
}

// ParseSignatureTimestamp accepts unix seconds, RFC 3339 and RFC 3339 with fractions.
func ParseSignatureTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrTimestampInvalid
	}
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(seconds, 0).UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampInvalid, value)
}

func computeSignature(secret []byte, timestamp string, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(payload)
	return mac.Sum(nil)
}

// decodeSignature returns every plausible decoding; a 64 character hex digest is
// also valid base64, so both are compared.
func decodeSignature(value string) [][]byte {
	var out [][]byte
	if decoded, err := hex.DecodeString(value); err == nil {
		out = append(out, decoded)
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if decoded, err := enc.DecodeString(value); err == nil {
			out = append(out, decoded)
			break
		}
	}
	return out
}
