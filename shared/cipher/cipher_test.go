package cipher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tutorhub/config"
	"tutorhub/shared/cipher"
)

func newCipher(key string) cipher.Cipher {
	cfg := &config.Config{}
	cfg.App.TokenCipherKey = key

	return cipher.New(cfg)
}

func TestCipher_RoundTrip(t *testing.T) {
	c := newCipher("unit-test-key")

	sealed, err := c.Encrypt("super-secret-token")
	assert.NoError(t, err)
	assert.NotEqual(t, "super-secret-token", sealed)
	assert.NotContains(t, sealed, "super-secret")

	opened, err := c.Decrypt(sealed)
	assert.NoError(t, err)
	assert.Equal(t, "super-secret-token", opened)
}

func TestCipher_EncryptIsNonDeterministic(t *testing.T) {
	c := newCipher("unit-test-key")

	first, err := c.Encrypt("super-secret-token")
	assert.NoError(t, err)

	second, err := c.Encrypt("super-secret-token")
	assert.NoError(t, err)

	// a fresh nonce per call keeps equal plaintexts unlinkable at rest
	assert.NotEqual(t, first, second)
}

func TestCipher_DecryptRejectsTampering(t *testing.T) {
	c := newCipher("unit-test-key")

	sealed, err := c.Encrypt("super-secret-token")
	assert.NoError(t, err)

	tampered := "A" + sealed[1:]
	if tampered == sealed {
		tampered = "B" + sealed[1:]
	}

	_, err = c.Decrypt(tampered)
	assert.Error(t, err)
}

func TestCipher_DecryptRejectsGarbage(t *testing.T) {
	c := newCipher("unit-test-key")

	_, err := c.Decrypt("not-base64!!")
	assert.Error(t, err)

	_, err = c.Decrypt("c2hvcnQ=")
	assert.Error(t, err)
}

func TestCipher_WrongKeyCannotDecrypt(t *testing.T) {
	sealed, err := newCipher("unit-test-key").Encrypt("super-secret-token")
	assert.NoError(t, err)

	_, err = newCipher("another-key").Decrypt(sealed)
	assert.Error(t, err)
}
