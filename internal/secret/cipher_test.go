package secret

import (
	"errors"
	"strings"
	"testing"
)

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher("test-passphrase", "test-salt")
	if err != nil {
		t.Fatalf("new cipher failed: %v", err)
	}
	plain := `{"stripecard":{"moduleCode":"stripecard","active":true}}`
	encoded, err := c.EncryptString(plain)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if strings.Contains(encoded, "stripecard") {
		t.Fatalf("ciphertext leaks plaintext: %s", encoded)
	}
	decoded, err := c.DecryptString(encoded)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if decoded != plain {
		t.Fatalf("round trip mismatch: %s", decoded)
	}
}

func TestCipherNonceUnique(t *testing.T) {
	c, err := NewCipher("test-passphrase", "test-salt")
	if err != nil {
		t.Fatalf("new cipher failed: %v", err)
	}
	first, err := c.EncryptString("same payload")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	second, err := c.EncryptString("same payload")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct ciphertexts for repeated payload")
	}
}

func TestCipherWrongKey(t *testing.T) {
	c1, err := NewCipher("passphrase-one", "salt")
	if err != nil {
		t.Fatalf("new cipher failed: %v", err)
	}
	c2, err := NewCipher("passphrase-two", "salt")
	if err != nil {
		t.Fatalf("new cipher failed: %v", err)
	}
	encoded, err := c1.EncryptString("secret config")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := c2.DecryptString(encoded); !errors.Is(err, ErrCiphertextInvalid) {
		t.Fatalf("expected ciphertext invalid, got: %v", err)
	}
}

func TestCipherCorruptPayload(t *testing.T) {
	c, err := NewCipher("test-passphrase", "test-salt")
	if err != nil {
		t.Fatalf("new cipher failed: %v", err)
	}
	if _, err := c.DecryptString("not-base64!!"); !errors.Is(err, ErrCiphertextInvalid) {
		t.Fatalf("expected ciphertext invalid, got: %v", err)
	}
	if _, err := c.DecryptString("c2hvcnQ="); !errors.Is(err, ErrCiphertextInvalid) {
		t.Fatalf("expected ciphertext invalid for short payload, got: %v", err)
	}
}

func TestNewCipherEmptyPassphrase(t *testing.T) {
	if _, err := NewCipher("", "salt"); !errors.Is(err, ErrKeyInvalid) {
		t.Fatalf("expected key invalid, got: %v", err)
	}
}
