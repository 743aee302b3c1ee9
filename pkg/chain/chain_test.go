package chain

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"filippo.io/edwards25519"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythra-labs/mythra-backend/pkg/config"
)

func testWallet(t *testing.T, seed byte) (string, ed25519.PrivateKey) {
	t.Helper()
	priv := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize))
	return base58.Encode(priv.Public().(ed25519.PublicKey)), priv
}

func offCurveKey(t *testing.T) []byte {
	t.Helper()
	for i := 0; i < 256; i++ {
		candidate := make([]byte, 32)
		candidate[0] = byte(i)
		candidate[1] = 7
		if _, err := new(edwards25519.Point).SetBytes(candidate); err != nil {
			return candidate
		}
	}
	t.Fatal("no off-curve candidate found")
	return nil
}

func TestValidateAddress(t *testing.T) {
	wallet, _ := testWallet(t, 1)
	_, err := ValidateAddress(wallet)
	require.NoError(t, err)

	_, err = ValidateAddress("0OIl")
	assert.True(t, errors.Is(err, ErrInvalidAddress), "non-base58 characters")

	_, err = ValidateAddress(base58.Encode([]byte{1, 2, 3}))
	assert.True(t, errors.Is(err, ErrInvalidAddress), "wrong length")

	_, err = ValidateAddress(base58.Encode(offCurveKey(t)))
	assert.True(t, errors.Is(err, ErrInvalidAddress), "off curve")
}

func TestVerifyWalletSignature(t *testing.T) {
	wallet, priv := testWallet(t, 2)
	eventID := uuid.New()
	msg := InvestmentMessage(eventID, decimal.RequireFromString("12.5"))
	sig := base58.Encode(ed25519.Sign(priv, msg))

	require.NoError(t, VerifyWalletSignature(wallet, msg, sig))

	other := InvestmentMessage(eventID, decimal.RequireFromString("13"))
	assert.True(t, errors.Is(VerifyWalletSignature(wallet, other, sig), ErrInvalidSignature))
	assert.True(t, errors.Is(VerifyWalletSignature(wallet, msg, "abc"), ErrInvalidSignature))

	otherWallet, _ := testWallet(t, 3)
	assert.True(t, errors.Is(VerifyWalletSignature(otherWallet, msg, sig), ErrInvalidSignature))
}

func TestSimulatedCreateEventIsDeterministic(t *testing.T) {
	ledger := NewSimulated("devnet")
	wallet, _ := testWallet(t, 4)
	req := CreateEventRequest{EventID: uuid.New(), CreatorWallet: wallet}

	first, err := ledger.CreateEvent(context.Background(), req)
	require.NoError(t, err)
	second, err := ledger.CreateEvent(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	raw, err := base58.Decode(first.Address)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	_, err = ledger.CreateEvent(context.Background(), CreateEventRequest{EventID: uuid.New(), CreatorWallet: "nope"})
	assert.True(t, errors.Is(err, ErrInvalidAddress))
}

func TestSimulatedTransferIsIdempotentByReference(t *testing.T) {
	ledger := NewSimulated("devnet")
	wallet, _ := testWallet(t, 5)
	req := TransferRequest{EventID: uuid.New(), Reference: "payout-1", ToWallet: wallet, AmountSol: decimal.NewFromInt(3)}

	first, err := ledger.TransferPayout(context.Background(), req)
	require.NoError(t, err)
	second, err := ledger.TransferPayout(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.TxSignature, second.TxSignature)
	assert.Len(t, ledger.Transfers(), 1)

	sig, err := base58.Decode(first.TxSignature)
	require.NoError(t, err)
	assert.Len(t, sig, 64)

	_, err = ledger.TransferPayout(context.Background(), TransferRequest{Reference: "x", ToWallet: wallet, AmountSol: decimal.Zero})
	assert.True(t, errors.Is(err, ErrTransferRejected))
}

func TestRetryingRetriesTransientFailures(t *testing.T) {
	sim := NewSimulated("devnet")
	wallet, _ := testWallet(t, 6)
	sim.FailNextTransfers(wallet, ErrUnavailable, ErrUnavailable)
	ledger := NewRetrying(sim, RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})

	transfer, err := ledger.TransferPayout(context.Background(), TransferRequest{
		EventID:   uuid.New(),
		Reference: "payout-2",
		ToWallet:  wallet,
		AmountSol: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, transfer.TxSignature)
}

func TestRetryingStopsOnPermanentFailure(t *testing.T) {
	sim := NewSimulated("devnet")
	wallet, _ := testWallet(t, 7)
	sim.FailNextTransfers(wallet, ErrTransferRejected)
	ledger := NewRetrying(sim, RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond})

	_, err := ledger.TransferPayout(context.Background(), TransferRequest{
		EventID:   uuid.New(),
		Reference: "payout-3",
		ToWallet:  wallet,
		AmountSol: decimal.NewFromInt(1),
	})
	assert.True(t, errors.Is(err, ErrTransferRejected))
	assert.Empty(t, sim.Transfers())
}

func TestRetryingGivesUpAfterMaxRetries(t *testing.T) {
	sim := NewSimulated("devnet")
	wallet, _ := testWallet(t, 8)
	sim.FailNextTransfers(wallet, ErrUnavailable, ErrUnavailable, ErrUnavailable)
	ledger := NewRetrying(sim, RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond})

	_, err := ledger.TransferPayout(context.Background(), TransferRequest{
		EventID:   uuid.New(),
		Reference: "payout-4",
		ToWallet:  wallet,
		AmountSol: decimal.NewFromInt(1),
	})
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestFromConfig(t *testing.T) {
	ledger, err := FromConfig(config.LedgerConfig{Mode: "simulated", Cluster: "devnet", TransferRetries: 2})
	if err != nil {
		t.Fatalf("expected simulated ledger: %v", err)
	}
	if _, ok := ledger.(*Retrying); !ok {
		t.Fatalf("expected retrying wrapper, got %T", ledger)
	}
	if _, err := FromConfig(config.LedgerConfig{Mode: "mainnet-rpc"}); err == nil {
		t.Fatal("expected unsupported mode error")
	}
}
