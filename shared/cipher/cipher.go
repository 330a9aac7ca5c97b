package cipher

import (
	"crypto/aes"
	gcipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"tutorhub/config"

	"github.com/rs/zerolog/log"
)

var errCiphertextTooShort = errors.New("ciphertext too short")

// Cipher seals secrets before they reach the database and opens them on the
// way back out. Values are AES-GCM encrypted and base64 encoded, so ciphertext
// fits any text column.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type cipherImpl struct {
	aead gcipher.AEAD
}

func New(cfg *config.Config) Cipher {
	key := sha256.Sum256([]byte(cfg.App.TokenCipherKey))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token cipher")
	}

	aead, err := gcipher.NewGCM(block)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token cipher")
	}

	return &cipherImpl{aead: aead}
}

func (c *cipherImpl) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *cipherImpl) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	if len(raw) < c.aead.NonceSize() {
		return "", errCiphertextTooShort
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]

	opened, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt ciphertext: %w", err)
	}

	return string(opened), nil
}
