// Package wallet loads the service keypair and signs transactions. Key
// custody beyond an env-provided secret is out of scope.
package wallet

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
)

type Wallet struct {
	key solana.PrivateKey
}

// LoadFromEnv reads a base58-encoded private key from PRIVATE_KEY.
func LoadFromEnv() (*Wallet, error) {
	raw := os.Getenv("PRIVATE_KEY")
	if raw == "" {
		return nil, fmt.Errorf("PRIVATE_KEY not set")
	}
	key, err := solana.PrivateKeyFromBase58(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid PRIVATE_KEY: %w", err)
	}
	return &Wallet{key: key}, nil
}

// New wraps an existing private key.
func New(key solana.PrivateKey) *Wallet {
	return &Wallet{key: key}
}

func (w *Wallet) PublicKey() solana.PublicKey {
	return w.key.PublicKey()
}

// SignTransaction signs tx with the wallet key in place.
func (w *Wallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(w.key.PublicKey()) {
			return &w.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return nil
}
