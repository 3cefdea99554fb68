package models

import (
	"errors"
	"fmt"
)

// ErrUnsupportedAsset means the price source has no data for a ticker. It is
// recovered at the batch level as a per-item error, never fatal to a batch.
var ErrUnsupportedAsset = errors.New("unsupported asset")

// ErrProviderUnavailable is a transient price-source failure. The provider
// boundary retries it a bounded number of times; once retries are exhausted
// the batch layer treats it like an unsupported asset for that item.
var ErrProviderUnavailable = errors.New("price provider unavailable")

// ErrPriceUnavailable means no observation exists at or near the requested
// instant (e.g. the horizon has not elapsed yet).
var ErrPriceUnavailable = errors.New("price unavailable")

// InvalidSignalError rejects a malformed signal before simulation.
type InvalidSignalError struct {
	Ticker string
	Reason string
}

func (e *InvalidSignalError) Error() string {
	if e.Ticker == "" {
		return "invalid signal: " + e.Reason
	}
	return fmt.Sprintf("invalid signal %s: %s", e.Ticker, e.Reason)
}

// IsInvalidSignal reports whether err is an InvalidSignalError.
func IsInvalidSignal(err error) bool {
	var ie *InvalidSignalError
	return errors.As(err, &ie)
}
