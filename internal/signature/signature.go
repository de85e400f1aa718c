// Package signature provides the HMAC-SHA256 request signature exchanged with bridge endpoints.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// HeaderName is the header carrying the signature on discovery requests.
const HeaderName = "x-novu-signature"

const (
	timestampKey = "t"
	digestKey    = "v1"
)

// Header is a signed header value: the signing timestamp (epoch milliseconds) and the hex digest
// of "{timestamp}.{payload}".
type Header struct {
	Timestamp int64
	Digest    string
}

// Sign computes the signature of payload at the given timestamp, keyed by key.
func Sign(key string, timestamp int64, payload []byte) Header {
	return Header{
		Timestamp: timestamp,
		Digest:    hex.EncodeToString(digest(key, timestamp, payload)),
	}
}

// SignAt signs payload using t converted to epoch milliseconds.
func SignAt(key string, t time.Time, payload []byte) Header {
	return Sign(key, t.UnixMilli(), payload)
}

// String renders the header in its wire format: t=<timestamp>,v1=<digest>.
func (h Header) String() string {
	return fmt.Sprintf("%s=%d,%s=%s", timestampKey, h.Timestamp, digestKey, h.Digest)
}

// Time returns the signing timestamp as a time.Time.
func (h Header) Time() time.Time {
	return time.UnixMilli(h.Timestamp)
}

// Parse decodes a header value in the t=<timestamp>,v1=<digest> format.
func Parse(value string) (Header, error) {
	var h Header
	var hasTimestamp, hasDigest bool
	for _, part := range strings.Split(value, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return Header{}, errors.Errorf("malformed signature element: %q", part)
		}
		switch k {
		case timestampKey:
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return Header{}, errors.Wrap(err, "invalid signature timestamp")
			}
			h.Timestamp, hasTimestamp = ts, true
		case digestKey:
			if _, err := hex.DecodeString(v); err != nil {
				return Header{}, errors.Wrap(err, "invalid signature digest")
			}
			h.Digest, hasDigest = v, true
		}
	}
	if !hasTimestamp {
		return Header{}, errors.New("missing signature timestamp")
	}
	if !hasDigest {
		return Header{}, errors.New("missing signature digest")
	}
	return h, nil
}

// Verify checks that value is a valid signature of payload keyed by key.
// A non-zero tolerance rejects signatures whose timestamp is further than tolerance from now.
func Verify(key, value string, payload []byte, tolerance time.Duration, now time.Time) error {
	if key == "" {
		return errors.New("missing signing key")
	}
	if value == "" {
		return errors.New("missing signature")
	}
	h, err := Parse(value)
	if err != nil {
		return err
	}
	if tolerance > 0 {
		if skew := now.Sub(h.Time()).Abs(); skew > tolerance {
			return errors.Errorf("signature timestamp outside tolerance: %s > %s", skew, tolerance)
		}
	}
	provided, _ := hex.DecodeString(h.Digest)
	if !hmac.Equal(provided, digest(key, h.Timestamp, payload)) {
		return errors.New("signature mismatch")
	}
	return nil
}

func digest(key string, timestamp int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return mac.Sum(nil)
}
