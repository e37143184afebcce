package crypt

import (
	"crypto/aes"
	crypto_cipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
)

var (
	salt = []byte("tuition-app.core.crypt")

	// ErrDecrypt is returned when a ciphertext was not produced by the
	// matching key or has been corrupted. Callers must surface it as a
	// not-found/invalid-resource condition, never as a fault.
	ErrDecrypt = errors.New("ciphertext could not be decrypted")
)

// Cipher encrypts and decrypts uploaded binary blobs (PDFs, receipts) at
// rest with AES-256-GCM. It is stateless and safe for concurrent use.
// The key is supplied at construction; it is never read from ambient state.
type Cipher struct {
	aead crypto_cipher.AEAD
}

// New derives a 256-bit key from the given secret and returns a ready Cipher.
func New(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, errors.New("crypt: empty secret")
	}
	key := sha256.Sum256(append(salt, secret...))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := crypto_cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext with a fresh random nonce. The nonce is prepended
// to the returned ciphertext.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Returns ErrDecrypt if the
// data was not sealed with the matching key or has been tampered with.
func (c *Cipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < c.aead.NonceSize() {
		return nil, ErrDecrypt
	}
	nonce, sealed := ciphertext[:c.aead.NonceSize()], ciphertext[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
