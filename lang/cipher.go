package lang

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
)

// Cipher is a symmetric cipher. Decrypt must invert Encrypt for every key.
type Cipher interface {
	Encrypt(key, plaintext []byte) ([]byte, error)
	Decrypt(key, ciphertext []byte) ([]byte, error)
}

var errCiphertextShort = errors.New("ciphertext too short")

// AESGCM is the default [Cipher]: AES-256-GCM keyed by the SHA-256 digest of
// the key text. A random nonce is prepended to each ciphertext, so encrypting
// the same plaintext twice yields different results.
type AESGCM struct{}

// Encrypt implements [Cipher].
func (AESGCM) Encrypt(key, plaintext []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt implements [Cipher].
func (AESGCM) Decrypt(key, ciphertext []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < aead.NonceSize() {
		return nil, errCiphertextShort
	}

	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]

	return aead.Open(nil, nonce, sealed, nil)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	sum := sha256.Sum256(key)

	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}
