// Package sales keeps the append-only history of completed sales.
package sales

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"medstock/m/domain"
	"medstock/m/internal/recordstore"
)

// Ledger is the sales history. Records are only ever appended.
type Ledger struct {
	mu    sync.RWMutex
	table *recordstore.Table[domain.Sale]
	now   func() time.Time
}

// Open loads the sales file at path, starting empty if it does not exist.
func Open(path string, now func() time.Time) (*Ledger, error) {
	table, err := recordstore.Open[domain.Sale](path, saleCodec{})
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{table: table, now: now}, nil
}

// Record appends a sale stamped with the current date and time. It performs
// no validation; the checkout coordinator owns that.
func (l *Ledger) Record(itemID, itemName string, quantity int) (domain.Sale, error) {
	now := l.now()
	sale := domain.Sale{
		ItemID:   itemID,
		ItemName: itemName,
		Quantity: quantity,
		Date:     domain.DateOf(now),
		Time:     now.Format(domain.TimeLayout),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.table.Replace(append(l.table.Rows(), sale)); err != nil {
		return domain.Sale{}, fmt.Errorf("save sales: %w", err)
	}
	return sale, nil
}

// All returns every sale in the order it was recorded.
func (l *Ledger) All() []domain.Sale {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.table.Rows()
}

// Count returns the number of recorded sales.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.table.Len()
}

// Between returns the sales dated within [from, to]. A nil bound is open.
func (l *Ledger) Between(from, to *domain.Date) []domain.Sale {
	return slices.DeleteFunc(l.All(), func(s domain.Sale) bool {
		if from != nil && s.Date.Before(*from) {
			return true
		}
		return to != nil && to.Before(s.Date)
	})
}
