package chain

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// Simulated is an in-memory Ledger with deterministic addresses and
// signatures. Failures can be scripted per wallet.
type Simulated struct {
	cluster string

	mu        sync.Mutex
	vaults    map[uuid.UUID]*EventVault
	transfers map[string]*Transfer
	failures  map[string][]error
}

func NewSimulated(cluster string) *Simulated {
	if cluster == "" {
		cluster = "devnet"
	}
	return &Simulated{
		cluster:   cluster,
		vaults:    map[uuid.UUID]*EventVault{},
		transfers: map[string]*Transfer{},
		failures:  map[string][]error{},
	}
}

// FailNextTransfers queues errors returned by upcoming transfers to wallet, in order.
func (s *Simulated) FailNextTransfers(wallet string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[wallet] = append(s.failures[wallet], errs...)
}

// Transfers returns a snapshot of completed transfers keyed by reference.
func (s *Simulated) Transfers() map[string]Transfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Transfer, len(s.transfers))
	for k, v := range s.transfers {
		out[k] = *v
	}
	return out
}

func (s *Simulated) CreateEvent(ctx context.Context, req CreateEventRequest) (*EventVault, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := ValidateAddress(req.CreatorWallet); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if vault, ok := s.vaults[req.EventID]; ok {
		copied := *vault
		return &copied, nil
	}
	vault := &EventVault{
		EventID:     req.EventID,
		Address:     base58.Encode(s.sum("vault", req.EventID.String(), req.CreatorWallet)),
		TxSignature: s.digest("create", req.EventID.String()),
	}
	s.vaults[req.EventID] = vault
	copied := *vault
	return &copied, nil
}

func (s *Simulated) TransferPayout(ctx context.Context, req TransferRequest) (*Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrTransferRejected)
	}
	if !req.AmountSol.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrTransferRejected)
	}
	if _, err := ValidateAddress(req.ToWallet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferRejected, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.transfers[req.Reference]; ok {
		copied := *existing
		return &copied, nil
	}
	if queued := s.failures[req.ToWallet]; len(queued) > 0 {
		s.failures[req.ToWallet] = queued[1:]
		return nil, queued[0]
	}

	transfer := &Transfer{
		Reference:   req.Reference,
		ToWallet:    req.ToWallet,
		AmountSol:   req.AmountSol,
		TxSignature: s.digest("transfer", req.EventID.String(), req.Reference, req.AmountSol.String()),
	}
	s.transfers[req.Reference] = transfer
	copied := *transfer
	return &copied, nil
}

func (s *Simulated) VerifySignature(_ context.Context, wallet string, message []byte, signature string) error {
	return VerifyWalletSignature(wallet, message, signature)
}

func (s *Simulated) sum(parts ...string) []byte {
	h := sha256.New()
	h.Write([]byte(s.cluster))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return h.Sum(nil)
}

// digest returns a 64-byte base58 value shaped like a transaction signature.
func (s *Simulated) digest(parts ...string) string {
	first := s.sum(parts...)
	second := sha256.Sum256(first)
	return base58.Encode(append(first, second[:]...))
}
