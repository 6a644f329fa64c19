package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/placement"
)

type PlacementLog struct {
	mu      sync.RWMutex
	entries []placement.Entry
}

var _ placement.Log = (*PlacementLog)(nil)

func NewPlacementLog() *PlacementLog {
	return &PlacementLog{}
}

func (l *PlacementLog) Append(ctx context.Context, e placement.Entry) error {
	_ = ctx
	l.mu.Lock()
	defer l.mu.Unlock()
	e.ID = int64(len(l.entries) + 1)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.Errors = append([]string(nil), e.Errors...)
	l.entries = append(l.entries, e)
	return nil
}

func (l *PlacementLog) ListByReference(ctx context.Context, reference string) ([]placement.Entry, error) {
	_ = ctx
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []placement.Entry
	for _, e := range l.entries {
		if e.PaymentReference == reference {
			out = append(out, e)
		}
	}
	return out, nil
}
