package paddle

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the request header Paddle signs webhook deliveries with.
const SignatureHeader = "Paddle-Signature"

// VerifySignature checks a Paddle-Signature header value ("ts=<unix>;h1=<hex>")
// against the raw request body and shared secret. The signed payload is
// "<ts>:<body>". A non-zero tolerance additionally rejects signatures whose
// timestamp is further than tolerance from now in either direction.
func VerifySignature(payload []byte, secret, header string, tolerance time.Duration) bool {
	return verifySignatureAt(payload, secret, header, tolerance, time.Now())
}

func verifySignatureAt(payload []byte, secret, header string, tolerance time.Duration, now time.Time) bool {
	if secret == "" || header == "" {
		return false
	}

	ts, signatures := parseSignatureHeader(header)
	if ts == "" || len(signatures) == 0 {
		return false
	}

	if tolerance > 0 {
		unix, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return false
		}
		drift := now.Sub(time.Unix(unix, 0))
		if drift < -tolerance || drift > tolerance {
			return false
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte(":"))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return true
		}
	}
	return false
}

// parseSignatureHeader splits "ts=...;h1=...;h1=..." into the timestamp and
// the h1 signature candidates. Paddle sends multiple h1 entries during secret
// rotation.
func parseSignatureHeader(header string) (string, []string) {
	var ts string
	var signatures []string
	for _, part := range strings.Split(header, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "h1":
			if value != "" {
				signatures = append(signatures, value)
			}
		}
	}
	return ts, signatures
}
