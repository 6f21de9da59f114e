package chain

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Signer produces the user's signature over a request digest. Wallet key
// management lives outside this module; interactive wallets may return
// ErrUserRejected when the user declines.
type Signer interface {
	// Address is the account submitting on the user's behalf.
	Address() string

	// SignDigest signs a 32-byte keccak digest.
	SignDigest(digest []byte) ([]byte, error)
}

// Digest computes the keccak-256 digest signed by the wallet.
func Digest(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// KeySigner signs with a raw ed25519 private key held in memory. Used by the
// CLI after the keystore is unlocked; UI wallets plug in their own Signer.
type KeySigner struct {
	key  ed25519.PrivateKey
	addr string
}

// NewKeySigner derives the account address from the public key: the last 20
// bytes of its keccak-256 digest, hex-encoded.
func NewKeySigner(key ed25519.PrivateKey) (*KeySigner, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: %d", len(key))
	}
	pub := key.Public().(ed25519.PublicKey)
	sum := Digest(pub)
	return &KeySigner{
		key:  key,
		addr: "0x" + hex.EncodeToString(sum[len(sum)-20:]),
	}, nil
}

func (s *KeySigner) Address() string { return s.addr }

func (s *KeySigner) SignDigest(digest []byte) ([]byte, error) {
	return ed25519.Sign(s.key, digest), nil
}
