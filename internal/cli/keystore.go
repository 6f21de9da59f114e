package cli

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"github.com/verdantlab/ranger/internal/chain"
	"github.com/verdantlab/ranger/internal/config"
	"github.com/verdantlab/ranger/internal/cryptox"
	"github.com/verdantlab/ranger/internal/shared"
)

// unlockSigner opens the sealed wallet key, creating a fresh one on first
// run. The passphrase and the unsealed key bytes are wiped after the signer
// is constructed.
func unlockSigner(c *config.Config, w io.Writer) (*chain.KeySigner, error) {
	if _, err := os.Stat(c.KeystorePath); os.IsNotExist(err) {
		return createSigner(c, w)
	}

	ks, err := cryptox.LoadKeystore(c.KeystorePath)
	if err != nil {
		return nil, fmt.Errorf("error loading keystore: %w", err)
	}

	passphrase, err := GetPassword(w)
	if err != nil {
		return nil, err
	}
	defer shared.WipeByteArray(passphrase)

	secret, err := ks.Open(passphrase)
	if err != nil {
		return nil, err
	}
	defer shared.WipeByteArray(secret)

	return chain.NewKeySigner(ed25519.PrivateKey(append([]byte(nil), secret...)))
}

func createSigner(c *config.Config, w io.Writer) (*chain.KeySigner, error) {
	fmt.Fprintln(w, "No keystore found, creating a new wallet key.")

	passphrase, err := GetPassword(w)
	if err != nil {
		return nil, err
	}
	defer shared.WipeByteArray(passphrase)

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	ks, err := cryptox.Seal(key, passphrase)
	if err != nil {
		return nil, err
	}
	if err := cryptox.SaveKeystore(c.KeystorePath, ks); err != nil {
		return nil, fmt.Errorf("error saving keystore: %w", err)
	}

	signer, err := chain.NewKeySigner(key)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Wallet address: %s\n", signer.Address())
	return signer, nil
}
