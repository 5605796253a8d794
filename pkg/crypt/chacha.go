package crypt

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// ChaCha20Poly1305 seals values with XChaCha20-Poly1305. The extended nonce
// makes random nonce generation safe at any write volume.
type ChaCha20Poly1305 struct{}

// ID returns the cipher's wire identifier.
func (c *ChaCha20Poly1305) ID() uint8 { return IDChaCha20Poly1305 }

// Name returns "chacha20-poly1305".
func (c *ChaCha20Poly1305) Name() string { return "chacha20-poly1305" }

// Seal encrypts and authenticates plaintext, returning nonce||ciphertext.
func (c *ChaCha20Poly1305) Seal(plaintext []byte, key [KeySize]byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("chacha20: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("chacha20 nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open authenticates and decrypts a Seal output.
func (c *ChaCha20Poly1305) Open(sealed []byte, key [KeySize]byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("chacha20: %w", err)
	}

	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("chacha20: sealed payload shorter than nonce")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("chacha20 open: %w", err)
	}
	return plaintext, nil
}
