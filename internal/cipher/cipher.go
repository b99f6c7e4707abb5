// Package cipher seals credential secrets at rest with AES-GCM.
package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
)

// Argon2id parameters used when the configured key is a passphrase.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	keyLen       = 32
)

var errShortCiphertext = errors.New("ciphertext shorter than nonce")

// Cipher encrypts and decrypts with one process-wide key. It is safe for
// concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// New builds a Cipher from the configured key. A base64 string decoding to
// 16, 24 or 32 bytes is used as the raw AES key; anything else is treated as
// a passphrase and stretched to 32 bytes with argon2id and salt.
func New(key, salt string) (*Cipher, error) {
	if key == "" {
		return nil, errors.New("cipher: empty key")
	}
	raw, err := DeriveKey(key, salt)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// DeriveKey returns the raw AES key for the configured key string.
func DeriveKey(key, salt string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(key); err == nil {
		switch len(b) {
		case 16, 24, 32:
			return b, nil
		}
	}
	if salt == "" {
		return nil, errors.New("cipher: passphrase keys need a salt")
	}
	return argon2.IDKey([]byte(key), []byte(salt), argonTime, argonMemory, argonThreads, keyLen), nil
}

// Encrypt seals plaintext under a fresh random nonce and returns
// base64(nonce || sealed).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", apperrors.EncryptionFailure(fmt.Errorf("read nonce: %w", err))
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Malformed, tampered or foreign-key input fails
// with EncryptionFailure.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", apperrors.EncryptionFailure(fmt.Errorf("decode ciphertext: %w", err))
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return "", apperrors.EncryptionFailure(errShortCiphertext)
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", apperrors.EncryptionFailure(fmt.Errorf("open ciphertext: %w", err))
	}
	return string(plain), nil
}

// GenerateKey returns a random 32-byte key encoded for the CIPHER_KEY setting.
func GenerateKey() (string, error) {
	b := make([]byte, keyLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
