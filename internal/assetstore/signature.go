package assetstore

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sign computes the request signature the CDN expects: the signable
// parameters serialised as sorted key=value pairs joined with "&", with
// the API secret appended, hashed with SHA-1 and hex encoded. Empty
// values are excluded from the canonical string.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	h := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(h[:])
}

// SignedUpload is the payload handed to a browser for a direct-to-store
// upload. The signature covers folder, public_id, and timestamp; the
// resource type is echoed back but not signed.
type SignedUpload struct {
	Signature    string `json:"signature"`
	Timestamp    int64  `json:"timestamp"`
	Folder       string `json:"folder"`
	ResourceType string `json:"resourceType"`
	PublicID     string `json:"publicId,omitempty"`
}

// SignUpload builds a time-stamped signed payload for a direct upload.
func SignUpload(folder, resourceType, publicID, secret string, now time.Time) SignedUpload {
	ts := now.Unix()
	sig := Sign(map[string]string{
		"folder":    folder,
		"public_id": publicID,
		"timestamp": strconv.FormatInt(ts, 10),
	}, secret)
	return SignedUpload{
		Signature:    sig,
		Timestamp:    ts,
		Folder:       folder,
		ResourceType: resourceType,
		PublicID:     publicID,
	}
}
