// Package chain abstracts the on-chain ledger that holds event vaults and moves SOL.
package chain

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrInvalidSignature = errors.New("invalid wallet signature")
	ErrTransferRejected = errors.New("transfer rejected")
	ErrUnavailable      = errors.New("ledger unavailable")
)

// Ledger is the capability surface the service needs from the chain.
type Ledger interface {
	CreateEvent(ctx context.Context, req CreateEventRequest) (*EventVault, error)
	TransferPayout(ctx context.Context, req TransferRequest) (*Transfer, error)
	VerifySignature(ctx context.Context, wallet string, message []byte, signature string) error
}

type CreateEventRequest struct {
	EventID       uuid.UUID
	CreatorWallet string
	VaultCapSol   decimal.Decimal
}

type EventVault struct {
	EventID     uuid.UUID
	Address     string
	TxSignature string
}

// TransferRequest moves AmountSol from the event vault to ToWallet. Reference
// is the caller's idempotency key; repeating it returns the original transfer.
type TransferRequest struct {
	EventID   uuid.UUID
	Reference string
	ToWallet  string
	AmountSol decimal.Decimal
}

type Transfer struct {
	Reference   string
	ToWallet    string
	AmountSol   decimal.Decimal
	TxSignature string
}

// ValidateAddress checks that wallet is a base58 ed25519 public key on the curve.
func ValidateAddress(wallet string) ([]byte, error) {
	raw, err := base58.Decode(strings.TrimSpace(wallet))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, ed25519.PublicKeySize, len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: not on curve", ErrInvalidAddress)
	}
	return raw, nil
}

// VerifyWalletSignature checks a base58 ed25519 signature over message.
func VerifyWalletSignature(wallet string, message []byte, signature string) error {
	pub, err := ValidateAddress(wallet)
	if err != nil {
		return err
	}
	sig, err := base58.Decode(strings.TrimSpace(signature))
	if err != nil || len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: malformed signature", ErrInvalidSignature)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), message, sig) {
		return ErrInvalidSignature
	}
	return nil
}

// InvestmentMessage is the payload investors sign to authorize an investment.
func InvestmentMessage(eventID uuid.UUID, amount decimal.Decimal) []byte {
	return []byte(fmt.Sprintf("mythra:invest:%s:%s", eventID, amount.String()))
}
