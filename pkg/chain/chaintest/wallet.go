// Package chaintest provides deterministic wallets for tests.
package chaintest

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

// Wallet is an ed25519 keypair with its base58 address.
type Wallet struct {
	Address string
	Private ed25519.PrivateKey
}

// NewWallet derives a wallet from a single repeated seed byte.
func NewWallet(seed byte) Wallet {
	priv := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize))
	return Wallet{
		Address: base58.Encode(priv.Public().(ed25519.PublicKey)),
		Private: priv,
	}
}

// Sign returns the base58 signature of message.
func (w Wallet) Sign(message []byte) string {
	return base58.Encode(ed25519.Sign(w.Private, message))
}
