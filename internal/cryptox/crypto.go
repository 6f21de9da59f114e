// Package cryptox seals the wallet key at rest. The keystore file holds the
// signing key encrypted with AES-GCM under a key derived from the user's
// passphrase with argon2id.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"
)

// Keystore is the on-disk form of the sealed wallet key.
type Keystore struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// DeriveKey derives a 32-byte AES key from the passphrase and salt.
func DeriveKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

// Seal encrypts secret under the passphrase with a fresh salt and nonce.
func Seal(secret, passphrase []byte) (*Keystore, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	key := DeriveKey(passphrase, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return &Keystore{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aesgcm.Seal(nil, nonce, secret, nil),
	}, nil
}

// Open decrypts the sealed secret. A wrong passphrase fails authentication.
func (k *Keystore) Open(passphrase []byte) ([]byte, error) {
	key := DeriveKey(passphrase, k.Salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	secret, err := aesgcm.Open(nil, k.Nonce, k.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore: %w", err)
	}
	return secret, nil
}

// LoadKeystore reads a keystore file.
func LoadKeystore(path string) (*Keystore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var k Keystore
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("failed to decode keystore: %w", err)
	}
	return &k, nil
}

// SaveKeystore writes the keystore with owner-only permissions.
func SaveKeystore(path string, k *Keystore) error {
	data, err := json.Marshal(k)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
