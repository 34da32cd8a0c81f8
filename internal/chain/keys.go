package chain

import (
	"crypto/ed25519"
	"fmt"

	bip39 "github.com/tyler-smith/go-bip39"
)

// Keypair holds the signing material for one custodial address. The mnemonic
// is the canonical seed representation persisted (encrypted) by the address
// pool; the ed25519 keys are derived from it deterministically.
type Keypair struct {
	Address  string
	Mnemonic string

	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// GenerateKeypair creates a fresh 12-word mnemonic and derives its keypair
// and SS58 address.
func GenerateKeypair(prefix uint16) (*Keypair, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return nil, fmt.Errorf("unable to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("unable to generate mnemonic: %w", err)
	}
	return KeypairFromMnemonic(mnemonic, prefix)
}

// KeypairFromMnemonic rebuilds the keypair for an existing mnemonic.
func KeypairFromMnemonic(mnemonic string, prefix uint16) (*Keypair, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}

	seed := bip39.NewSeed(mnemonic, "")
	priv := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])
	pub := priv.Public().(ed25519.PublicKey)

	address, err := EncodeSS58(prefix, pub)
	if err != nil {
		return nil, fmt.Errorf("unable to encode address: %w", err)
	}

	return &Keypair{
		Address:  address,
		Mnemonic: mnemonic,
		pub:      pub,
		priv:     priv,
	}, nil
}

// Sign signs an extrinsic payload with the address's private key.
func (k *Keypair) Sign(payload []byte) []byte {
	return ed25519.Sign(k.priv, payload)
}

// Verify checks a signature produced by Sign.
func (k *Keypair) Verify(payload, signature []byte) bool {
	return ed25519.Verify(k.pub, payload, signature)
}

// PublicKey returns the raw 32-byte public key.
func (k *Keypair) PublicKey() []byte {
	return k.pub
}
