package logger

import "testing"

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	kv := sanitizeKVs([]interface{}{
		"authorization", "Bearer abc",
		"user_id", "0b7c1f0e-1111-2222-3333-444455556666",
		"topic", "Openings",
	})
	if len(kv) != 6 {
		t.Fatalf("unexpected kv length: %d", len(kv))
	}
	if kv[1] != "[REDACTED]" {
		t.Fatalf("authorization not redacted: %v", kv[1])
	}
	hashed, _ := kv[3].(string)
	if len(hashed) != len("hash:")+12 {
		t.Fatalf("user_id not hashed: %v", kv[3])
	}
	if kv[5] != "Openings" {
		t.Fatalf("plain value changed: %v", kv[5])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"domain", "Chess", "dangling"})
	if len(kv) != 3 || kv[2] != "dangling" {
		t.Fatalf("dangling key dropped: %v", kv)
	}
}
