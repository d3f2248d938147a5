package rcm

import (
	"errors"
	"fmt"
	"regexp"
	"sync/atomic"
	"time"
)

// ErrProviderCodeRequired is returned when a claim number is requested
// without a usable provider code.
var ErrProviderCodeRequired = errors.New("provider code is required")

var providerCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{2,10}$`)

// claimSeq makes concurrently generated claim numbers distinct even within
// the same millisecond.
var claimSeq uint64

// GenerateClaimNumber produces a human-readable claim number embedding the
// provider code, the current year, and a unique sequence component, e.g.
// "ABC-2026-1756380011234-42". Rapid successive calls never collide because
// the sequence is strictly monotonic within the process.
func GenerateClaimNumber(providerCode string) (string, error) {
	if providerCode == "" {
		return "", ErrProviderCodeRequired
	}
	if !providerCodePattern.MatchString(providerCode) {
		return "", fmt.Errorf("%w: %q is not an alphanumeric provider code", ErrProviderCodeRequired, providerCode)
	}
	seq := atomic.AddUint64(&claimSeq, 1)
	now := time.Now()
	return fmt.Sprintf("%s-%d-%d-%d", providerCode, now.Year(), now.UnixMilli(), seq), nil
}
