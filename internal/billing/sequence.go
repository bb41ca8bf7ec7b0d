package billing

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SequenceAllocator hands out per-seller invoice sequence numbers. Two calls
// for the same seller never return the same value; the first call returns 1.
type SequenceAllocator interface {
	Next(ctx context.Context, sellerID uuid.UUID) (int64, error)
}

// FormatInvoiceNumber zero pads to three digits. Numbers above 999 keep
// growing ("1000", "1001") rather than wrapping.
func FormatInvoiceNumber(seq int64) string {
	return fmt.Sprintf("%03d", seq)
}

// MemorySequenceAllocator keeps counters in process memory behind a mutex.
// Counters are lost on restart, so it only suits single-instance and test
// deployments; production uses the postgres allocator.
type MemorySequenceAllocator struct {
	mu       sync.Mutex
	counters map[uuid.UUID]int64
}

func NewMemorySequenceAllocator() *MemorySequenceAllocator {
	return &MemorySequenceAllocator{counters: make(map[uuid.UUID]int64)}
}

func (a *MemorySequenceAllocator) Next(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[sellerID]++
	return a.counters[sellerID], nil
}
