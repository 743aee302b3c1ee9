package chain

import (
	"fmt"

	"github.com/mythra-labs/mythra-backend/pkg/config"
)

// FromConfig builds the ledger selected by MYTHRA_LEDGER_MODE wrapped in the
// retry policy.
func FromConfig(cfg config.LedgerConfig) (Ledger, error) {
	var base Ledger
	switch cfg.Mode {
	case "", config.LedgerModeSimulated:
		base = NewSimulated(cfg.Cluster)
	default:
		return nil, fmt.Errorf("unsupported ledger mode %q", cfg.Mode)
	}
	return NewRetrying(base, RetryPolicy{
		MaxRetries: cfg.TransferRetries,
		BaseDelay:  cfg.RetryBaseDelay,
		MaxDelay:   cfg.RetryMaxDelay,
	}), nil
}
