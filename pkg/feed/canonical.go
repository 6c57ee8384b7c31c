package feed

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"
)

// Tracking parameters stripped during canonicalization.
var trackingParams = map[string]bool{
	"gclid":  true,
	"fbclid": true,
	"yclid":  true,
}

// CanonicalURL strips tracking query parameters (utm_*, gclid, fbclid, yclid)
// from a link. Unparseable input is returned unchanged. Idempotent.
func CanonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	changed := false
	for name := range q {
		if trackingParams[name] || strings.HasPrefix(name, "utm_") {
			q.Del(name)
			changed = true
		}
	}
	if !changed {
		return raw
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// Fingerprint is a short content hash of the canonical URL, used by the
// storage layer to dedup independently of the in-memory merge key.
func Fingerprint(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return fmt.Sprintf("%x", sum)[:16]
}
