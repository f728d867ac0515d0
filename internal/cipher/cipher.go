// Package cipher encrypts and decrypts the OAuth credentials stored on
// tweet queue rows.
package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
)

var (
	// ErrInvalidKey indicates the app secret is not a valid AES-256 key.
	ErrInvalidKey = errors.New("cipher key must be 32 bytes")
	// ErrInvalidCiphertext indicates the ciphertext is malformed or truncated.
	ErrInvalidCiphertext = errors.New("ciphertext too short")
	// ErrDecryptionFailed indicates the key is wrong or the data is corrupted.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Cipher provides AES-256-GCM encryption with hex encoding, since the
// queue columns hold the credential material as text.
type Cipher struct {
	gcm stdcipher.AEAD
}

// New creates a Cipher from a 32-byte key.
func New(key []byte) (*Cipher, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := stdcipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Cipher{gcm: gcm}, nil
}

// Encrypt encrypts plaintext and returns hex(nonce || ciphertext || tag).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	nonceSize := c.gcm.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrInvalidCiphertext
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}
