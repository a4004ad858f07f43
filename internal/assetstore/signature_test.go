package assetstore

import (
	"crypto/sha1"
	"encoding/hex"
	"testing"
	"time"
)

func TestSignSortsAndSkipsEmpty(t *testing.T) {
	sig := Sign(map[string]string{
		"timestamp": "1700000000",
		"folder":    "noxistence",
		"public_id": "",
	}, "secret")

	h := sha1.Sum([]byte("folder=noxistence&timestamp=1700000000secret"))
	if want := hex.EncodeToString(h[:]); sig != want {
		t.Errorf("sig = %s, want %s", sig, want)
	}
}

func TestSignDeterministic(t *testing.T) {
	params := map[string]string{"b": "2", "a": "1", "c": "3"}
	first := Sign(params, "s")
	for i := 0; i < 10; i++ {
		if got := Sign(params, "s"); got != first {
			t.Fatalf("signature changed between calls: %s vs %s", got, first)
		}
	}

	h := sha1.Sum([]byte("a=1&b=2&c=3s"))
	if want := hex.EncodeToString(h[:]); first != want {
		t.Errorf("sig = %s, want %s", first, want)
	}
}

func TestSignUploadCoversExpectedParams(t *testing.T) {
	now := time.Unix(1700000000, 0)
	payload := SignUpload("noxistence", "image", "creature_1", "secret", now)

	if payload.Timestamp != 1700000000 {
		t.Errorf("timestamp = %d", payload.Timestamp)
	}
	if payload.Folder != "noxistence" || payload.ResourceType != "image" {
		t.Errorf("payload = %+v", payload)
	}

	want := Sign(map[string]string{
		"folder":    "noxistence",
		"public_id": "creature_1",
		"timestamp": "1700000000",
	}, "secret")
	if payload.Signature != want {
		t.Errorf("signature = %s, want %s", payload.Signature, want)
	}
}

func TestSignUploadOmitsEmptyPublicID(t *testing.T) {
	now := time.Unix(1700000000, 0)
	withID := SignUpload("f", "image", "id", "secret", now)
	withoutID := SignUpload("f", "image", "", "secret", now)

	if withID.Signature == withoutID.Signature {
		t.Error("public_id not part of the signed string")
	}

	want := Sign(map[string]string{
		"folder":    "f",
		"timestamp": "1700000000",
	}, "secret")
	if withoutID.Signature != want {
		t.Errorf("signature = %s, want %s", withoutID.Signature, want)
	}
}
