// Package inventory owns the item records of the pharmacy: adding, editing,
// deleting, searching and spotting items close to expiry.
package inventory

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"medstock/m/domain"
	"medstock/m/internal/recordstore"
)

// DefaultExpiryWindow is how far ahead CheckExpirations looks by default.
const DefaultExpiryWindow = 30 * 24 * time.Hour

// MaxExpiryWindowDays is the longest window in days a time.Duration can hold.
const MaxExpiryWindowDays = int(math.MaxInt64 / int64(24*time.Hour))

// ExpiryWindowDays converts a look-ahead in days to a window.
func ExpiryWindowDays(days int) (time.Duration, error) {
	if days < 0 || days > MaxExpiryWindowDays {
		return 0, domain.Invalid("days", "days must be between 0 and %d", MaxExpiryWindowDays)
	}
	return time.Duration(days) * 24 * time.Hour, nil
}

// Changes lists the attributes Edit overwrites. Nil fields are left as is.
type Changes struct {
	Quantity       *int
	ExpirationDate *string
}

// Ledger is the inventory store. Every mutation is persisted before it
// returns.
type Ledger struct {
	mu    sync.RWMutex
	table *recordstore.Table[domain.Item]
	now   func() time.Time
}

// Open loads the inventory file at path, starting empty if it does not
// exist yet.
func Open(path string, now func() time.Time) (*Ledger, error) {
	table, err := recordstore.Open[domain.Item](path, itemCodec{})
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	l := &Ledger{table: table, now: now}
	if err := l.checkUnique(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) checkUnique() error {
	seen := make(map[string]struct{}, l.table.Len())
	for _, it := range l.table.Rows() {
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("load inventory: %w", &recordstore.CorruptStoreError{
				Path:   l.table.Path(),
				Reason: fmt.Sprintf("duplicate id %q", it.ID),
			})
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}

// NormalizeID is the single canonical form of an item id.
func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}

// Add stores a new item. The caller is expected to have validated quantity
// as a positive integer.
func (l *Ledger) Add(id, name string, quantity int, expiration string) (domain.Item, error) {
	id = NormalizeID(id)
	if id == "" {
		return domain.Item{}, domain.Invalid("id", "id is required")
	}
	if quantity < 0 {
		return domain.Item{}, domain.Invalid("quantity", "quantity must not be negative")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rows := l.table.Rows()
	if indexOf(rows, id) >= 0 {
		return domain.Item{}, fmt.Errorf("add %q: %w", id, domain.ErrDuplicateID)
	}
	exp, err := ParseDate(expiration)
	if err != nil {
		return domain.Item{}, err
	}

	item := domain.Item{ID: id, Name: name, Quantity: quantity, ExpirationDate: exp}
	if err := l.table.Replace(append(rows, item)); err != nil {
		return domain.Item{}, fmt.Errorf("save inventory: %w", err)
	}
	return item, nil
}

// Edit overwrites the supplied attributes of the item with the given id.
func (l *Ledger) Edit(id string, changes Changes) (domain.Item, error) {
	id = NormalizeID(id)

	l.mu.Lock()
	defer l.mu.Unlock()

	rows := l.table.Rows()
	i := indexOf(rows, id)
	if i < 0 {
		return domain.Item{}, fmt.Errorf("edit %q: %w", id, domain.ErrNotFound)
	}

	item := rows[i]
	if changes.Quantity != nil {
		if *changes.Quantity < 0 {
			return domain.Item{}, domain.Invalid("quantity", "quantity must not be negative")
		}
		item.Quantity = *changes.Quantity
	}
	if changes.ExpirationDate != nil {
		exp, err := ParseDate(*changes.ExpirationDate)
		if err != nil {
			return domain.Item{}, err
		}
		item.ExpirationDate = exp
	}
	rows[i] = item

	if err := l.table.Replace(rows); err != nil {
		return domain.Item{}, fmt.Errorf("save inventory: %w", err)
	}
	return item, nil
}

// Delete removes the item with the given id. Deleting an unknown id is not
// an error.
func (l *Ledger) Delete(id string) error {
	id = NormalizeID(id)

	l.mu.Lock()
	defer l.mu.Unlock()

	rows := slices.DeleteFunc(l.table.Rows(), func(it domain.Item) bool {
		return it.ID == id
	})
	if err := l.table.Replace(rows); err != nil {
		return fmt.Errorf("save inventory: %w", err)
	}
	return nil
}

// Get returns the item with the given id.
func (l *Ledger) Get(id string) (domain.Item, bool) {
	id = NormalizeID(id)

	l.mu.RLock()
	defer l.mu.RUnlock()

	rows := l.table.Rows()
	if i := indexOf(rows, id); i >= 0 {
		return rows[i], true
	}
	return domain.Item{}, false
}

// All returns every item in insertion order.
func (l *Ledger) All() []domain.Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.table.Rows()
}

// Search returns the items whose id or name contains term, ignoring case.
func (l *Ledger) Search(term string) []domain.Item {
	folder := cases.Fold()
	needle := folder.String(term)

	var out []domain.Item
	for _, it := range l.All() {
		if strings.Contains(folder.String(it.ID), needle) || strings.Contains(folder.String(it.Name), needle) {
			out = append(out, it)
		}
	}
	return out
}

// CheckExpirations returns the items expiring within window of now,
// including those already expired. Days are counted on the wall clock, so a
// daylight saving change never moves the boundary.
func (l *Ledger) CheckExpirations(window time.Duration) []domain.Item {
	now := wallClock(l.now())
	var out []domain.Item
	for _, it := range l.All() {
		if it.ExpirationDate.Midnight(time.UTC).Sub(now) <= window {
			out = append(out, it)
		}
	}
	return out
}

func indexOf(rows []domain.Item, id string) int {
	return slices.IndexFunc(rows, func(it domain.Item) bool {
		return it.ID == id
	})
}

// wallClock re-expresses t's local date and time in UTC.
func wallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
