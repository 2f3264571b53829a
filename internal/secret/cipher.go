package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

var (
	ErrKeyInvalid        = errors.New("secret key invalid")
	ErrCiphertextInvalid = errors.New("secret ciphertext invalid")
)

const (
	keyLength       = 32
	pbkdf2Iteration = 64000
)

// Cipher 对称加密器，用于商户模块配置的落库保护。
// 密钥由配置口令经 PBKDF2 派生，密文为 nonce||ciphertext 的 base64。
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher 从口令与盐派生 AES-256-GCM 加密器
func NewCipher(passphrase, salt string) (*Cipher, error) {
	if strings.TrimSpace(passphrase) == "" {
		return nil, fmt.Errorf("%w: passphrase is empty", ErrKeyInvalid)
	}
	if strings.TrimSpace(salt) == "" {
		return nil, fmt.Errorf("%w: salt is empty", ErrKeyInvalid)
	}
	key := pbkdf2.Key([]byte(passphrase), []byte(salt), pbkdf2Iteration, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyInvalid, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyInvalid, err)
	}
	return &Cipher{aead: aead}, nil
}

// EncryptString 加密明文，每次调用产生随机 nonce
func (c *Cipher) EncryptString(plaintext string) (string, error) {
	if c == nil || c.aead == nil {
		return "", ErrKeyInvalid
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: nonce generate failed", ErrKeyInvalid)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString 解密密文，密钥不符或数据损坏时报错
func (c *Cipher) DecryptString(encoded string) (string, error) {
	if c == nil || c.aead == nil {
		return "", ErrKeyInvalid
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("%w: decode failed", ErrCiphertextInvalid)
	}
	nonceSize := c.aead.NonceSize()
	if len(raw) <= nonceSize {
		return "", fmt.Errorf("%w: payload too short", ErrCiphertextInvalid)
	}
	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: open failed", ErrCiphertextInvalid)
	}
	return string(plaintext), nil
}
