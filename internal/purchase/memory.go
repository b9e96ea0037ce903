package purchase

import (
	"context"
	"sync"
)

// Memory implements Store for tests: a plain coupon counter and recorded
// rows held in a slice.
type Memory struct {
	mu       sync.Mutex
	coupon   int64
	records  []Record
	balances map[int64]float64

	// FailNextCoupon forces the next sequence advance to fail.
	FailNextCoupon error
	// FailRecord forces the next recording to fail.
	FailRecord error
}

func NewMemory() *Memory {
	return &Memory{balances: make(map[int64]float64)}
}

func (m *Memory) NextCoupon(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNextCoupon != nil {
		err := m.FailNextCoupon
		m.FailNextCoupon = nil
		return 0, err
	}
	m.coupon++
	return m.coupon, nil
}

func (m *Memory) RecordPurchase(_ context.Context, rec Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRecord != nil {
		err := m.FailRecord
		m.FailRecord = nil
		return "", err
	}
	m.records = append(m.records, rec)
	return "Compra registrada correctamente", nil
}

func (m *Memory) UpdateCardBalance(_ context.Context, cardID int64, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[cardID] += amount
	return nil
}

// Records returns a copy of everything recorded so far.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

// Balance returns the accumulated balance delta for a card.
func (m *Memory) Balance(cardID int64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[cardID]
}
