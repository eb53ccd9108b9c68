package utils

import (
	"strings"
	"testing"
)

const testEncKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecryptAPIKey(t *testing.T) {
	secret := "op-live-key-12345"

	encrypted, err := EncryptAPIKey(secret, testEncKey)
	if err != nil {
		t.Fatalf("EncryptAPIKey() error = %v", err)
	}
	if encrypted == secret {
		t.Error("ciphertext must not equal the plaintext")
	}

	decrypted, err := DecryptAPIKey(encrypted, testEncKey)
	if err != nil {
		t.Fatalf("DecryptAPIKey() error = %v", err)
	}
	if decrypted != secret {
		t.Errorf("decrypted = %q, want %q", decrypted, secret)
	}
}

func TestEncryptAPIKey_NonDeterministic(t *testing.T) {
	first, err := EncryptAPIKey("secret", testEncKey)
	if err != nil {
		t.Fatalf("EncryptAPIKey() error = %v", err)
	}
	second, err := EncryptAPIKey("secret", testEncKey)
	if err != nil {
		t.Fatalf("EncryptAPIKey() error = %v", err)
	}
	if first == second {
		t.Error("two encryptions of the same value must differ")
	}
}

func TestEncryptAPIKey_EmptyInputPassesThrough(t *testing.T) {
	encrypted, err := EncryptAPIKey("", testEncKey)
	if err != nil || encrypted != "" {
		t.Errorf("EncryptAPIKey(\"\") = (%q, %v), want (\"\", nil)", encrypted, err)
	}

	decrypted, err := DecryptAPIKey("", testEncKey)
	if err != nil || decrypted != "" {
		t.Errorf("DecryptAPIKey(\"\") = (%q, %v), want (\"\", nil)", decrypted, err)
	}
}

func TestEncryptAPIKey_KeyValidation(t *testing.T) {
	if _, err := EncryptAPIKey("secret", ""); err != ErrEmptyKey {
		t.Errorf("empty key error = %v, want ErrEmptyKey", err)
	}
	if _, err := EncryptAPIKey("secret", "short"); err != ErrInvalidKeyLength {
		t.Errorf("short key error = %v, want ErrInvalidKeyLength", err)
	}
	if _, err := DecryptAPIKey("something", strings.Repeat("k", 33)); err != ErrInvalidKeyLength {
		t.Errorf("long key error = %v, want ErrInvalidKeyLength", err)
	}
}

func TestDecryptAPIKey_InvalidCiphertext(t *testing.T) {
	tests := []struct {
		name      string
		encrypted string
	}{
		{name: "not base64", encrypted: "!!not-base64!!"},
		{name: "too short", encrypted: "YWJj"},
		{name: "tampered", encrypted: "YWJjZGVmZ2hpamtsbW5vcHFyc3R1dnd4eXowMTIzNDU2Nzg5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecryptAPIKey(tt.encrypted, testEncKey); err != ErrInvalidCiphertext {
				t.Errorf("DecryptAPIKey(%q) error = %v, want ErrInvalidCiphertext", tt.encrypted, err)
			}
		})
	}
}
