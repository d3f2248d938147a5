package rcm

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerateClaimNumber(t *testing.T) {
	num, err := GenerateClaimNumber("ABC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(num, fmt.Sprintf("ABC-%d-", time.Now().Year())) {
		t.Errorf("claim number %q missing provider/year prefix", num)
	}
}

func TestGenerateClaimNumber_MissingCode(t *testing.T) {
	_, err := GenerateClaimNumber("")
	if !errors.Is(err, ErrProviderCodeRequired) {
		t.Errorf("expected ErrProviderCodeRequired, got %v", err)
	}
	_, err = GenerateClaimNumber("bad code!")
	if !errors.Is(err, ErrProviderCodeRequired) {
		t.Errorf("expected ErrProviderCodeRequired for non-alphanumeric code, got %v", err)
	}
}

func TestGenerateClaimNumber_NoCollisions(t *testing.T) {
	const n = 500
	var mu sync.Mutex
	seen := make(map[string]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := GenerateClaimNumber("XYZ")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[num] {
				t.Errorf("duplicate claim number %q", num)
			}
			seen[num] = true
		}()
	}
	wg.Wait()
}
