package cryptor

import (
	"bytes"
	"testing"

	"keybox/internal/cryptoprim"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	return cryptoprim.RawKey([]byte("master passphrase"))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("hunter2")

	encoded, err := EncryptPassword(key, plaintext)
	if err != nil {
		t.Fatalf("EncryptPassword: %v", err)
	}

	got, err := DecryptPassword(key, encoded)
	if err != nil {
		t.Fatalf("DecryptPassword: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("DecryptPassword() = %q, want %q", got, plaintext)
	}
}

func TestEncryptPasswordUsesFreshNonce(t *testing.T) {
	key := testKey(t)
	a, err := EncryptPassword(key, []byte("same"))
	if err != nil {
		t.Fatalf("EncryptPassword: %v", err)
	}
	b, err := EncryptPassword(key, []byte("same"))
	if err != nil {
		t.Fatalf("EncryptPassword: %v", err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext produced identical ciphertext; nonce reuse?")
	}
}

func TestDecryptPasswordWrongKeyFails(t *testing.T) {
	key := testKey(t)
	wrongKey := cryptoprim.RawKey([]byte("different passphrase"))

	encoded, err := EncryptPassword(key, []byte("hunter2"))
	if err != nil {
		t.Fatalf("EncryptPassword: %v", err)
	}

	if _, err := DecryptPassword(wrongKey, encoded); err == nil {
		t.Error("DecryptPassword() with the wrong key should fail")
	}
}

func TestDecryptPasswordMalformedInput(t *testing.T) {
	key := testKey(t)
	if _, err := DecryptPassword(key, "not-base64!!!"); err == nil {
		t.Error("DecryptPassword() with malformed base64 should fail")
	}
	if _, err := DecryptPassword(key, cryptoprim.Base64Encode([]byte("short"))); err == nil {
		t.Error("DecryptPassword() with a too-short payload should fail")
	}
}

func TestRewrap(t *testing.T) {
	oldKey := testKey(t)
	newKey := cryptoprim.RawKey([]byte("new passphrase"))

	plaintexts := []string{"alpha", "", "bravo"}
	encoded := make([]string, len(plaintexts))
	for i, p := range plaintexts {
		if p == "" {
			continue
		}
		enc, err := EncryptPassword(oldKey, []byte(p))
		if err != nil {
			t.Fatalf("EncryptPassword: %v", err)
		}
		encoded[i] = enc
	}

	rewrapped, err := Rewrap(oldKey, newKey, encoded)
	if err != nil {
		t.Fatalf("Rewrap: %v", err)
	}

	for i, p := range plaintexts {
		if p == "" {
			if rewrapped[i] != "" {
				t.Errorf("index %d: empty password should stay empty, got %q", i, rewrapped[i])
			}
			continue
		}
		got, err := DecryptPassword(newKey, rewrapped[i])
		if err != nil {
			t.Fatalf("DecryptPassword after rewrap: %v", err)
		}
		if string(got) != p {
			t.Errorf("index %d: got %q, want %q", i, got, p)
		}
		if _, err := DecryptPassword(oldKey, rewrapped[i]); err == nil {
			t.Errorf("index %d: rewrapped password should no longer open under the old key", i)
		}
	}
}
