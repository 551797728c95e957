// Package checkout runs the sale transaction: it validates a sale against
// the inventory, decrements the stock and appends the sale record.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"medstock/m/domain"
	"medstock/m/internal/inventory"
	"medstock/m/internal/journal"
)

// Inventory is the part of the inventory ledger a sale needs.
type Inventory interface {
	Get(id string) (domain.Item, bool)
	Edit(id string, changes inventory.Changes) (domain.Item, error)
}

// Sales is the part of the sales ledger a sale needs.
type Sales interface {
	Record(itemID, itemName string, quantity int) (domain.Sale, error)
	All() []domain.Sale
}

// Journal records a sale before it is applied.
type Journal interface {
	Begin(ctx context.Context, e journal.Entry) (journal.Entry, error)
	Advance(ctx context.Context, id string, stage journal.Stage, note string) error
	Pending(ctx context.Context) ([]journal.Entry, error)
	Completed(ctx context.Context, itemID string, quantity int) ([]journal.Entry, error)
}

// Coordinator applies sales across the inventory and sales ledgers.
type Coordinator struct {
	inventory Inventory
	sales     Sales
	journal   Journal
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithJournal makes every sale journalled so an interrupted sale can be
// finished by Recover.
func WithJournal(j Journal) Option {
	return func(c *Coordinator) {
		c.journal = j
	}
}

// New returns a coordinator over the two ledgers.
func New(inv Inventory, sales Sales, opts ...Option) *Coordinator {
	c := &Coordinator{inventory: inv, sales: sales}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseQuantity validates a raw quantity field as a positive integer.
func ParseQuantity(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, domain.Invalid("quantity", "quantity is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, domain.Invalid("quantity", "quantity must be a positive integer")
	}
	return n, nil
}

// Sell sells quantity units of the item. Validation, lookup and the stock
// check never change any state. Once the stock is decremented a failure to
// record the sale is returned wrapped in domain.ErrSaleIncomplete.
func (c *Coordinator) Sell(ctx context.Context, itemID string, quantity int) (domain.Sale, error) {
	id := inventory.NormalizeID(itemID)
	if id == "" {
		return domain.Sale{}, domain.Invalid("item_id", "item id is required")
	}
	if quantity <= 0 {
		return domain.Sale{}, domain.Invalid("quantity", "quantity must be a positive integer")
	}

	item, ok := c.inventory.Get(id)
	if !ok {
		return domain.Sale{}, fmt.Errorf("item %q: %w", id, domain.ErrNotFound)
	}
	if quantity > item.Quantity {
		return domain.Sale{}, fmt.Errorf("item %q has %d, requested %d: %w", id, item.Quantity, quantity, domain.ErrInsufficientStock)
	}
	remaining := item.Quantity - quantity

	var entry journal.Entry
	if c.journal != nil {
		var err error
		entry, err = c.journal.Begin(ctx, journal.Entry{
			ItemID:        id,
			ItemName:      item.Name,
			Quantity:      quantity,
			PriorQuantity: item.Quantity,
			NewQuantity:   remaining,
		})
		if err != nil {
			return domain.Sale{}, err
		}
	}

	if _, err := c.inventory.Edit(id, inventory.Changes{Quantity: &remaining}); err != nil {
		c.advance(ctx, entry, journal.StageAborted, err.Error())
		return domain.Sale{}, fmt.Errorf("decrement stock: %w", err)
	}
	c.advance(ctx, entry, journal.StageStockApplied, "")

	sale, err := c.sales.Record(id, item.Name, quantity)
	if err != nil {
		log.Printf("sale of %d x %s decremented stock to %d but was not recorded: %v", quantity, id, remaining, err)
		return domain.Sale{}, fmt.Errorf("%w: %w", domain.ErrSaleIncomplete, err)
	}
	c.advance(ctx, entry, journal.StageCompleted, "")
	return sale, nil
}

// advance is best effort: the ledgers already hold the truth and Recover
// reconciles a stale stage.
func (c *Coordinator) advance(ctx context.Context, e journal.Entry, stage journal.Stage, note string) {
	if c.journal == nil || e.ID == "" {
		return
	}
	if err := c.journal.Advance(ctx, e.ID, stage, note); err != nil {
		log.Printf("journal %s: unable to mark %s: %v", e.ID, stage, err)
	}
}

// RecoveryReport counts how unfinished sales were resolved.
type RecoveryReport struct {
	Completed  int
	Aborted    int
	Conflicted int
}

// Recover resolves sales left unfinished by a previous run, newest first so
// that each entry only claims a sale record no later entry owns. Without a
// journal it does nothing.
func (c *Coordinator) Recover(ctx context.Context) (RecoveryReport, error) {
	var report RecoveryReport
	if c.journal == nil {
		return report, nil
	}
	entries, err := c.journal.Pending(ctx)
	if err != nil {
		return report, err
	}
	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		stage, note, err := c.resolve(ctx, e)
		if err != nil {
			errs = append(errs, fmt.Errorf("recover %s: %w", e.ID, err))
			continue
		}
		if err := c.journal.Advance(ctx, e.ID, stage, note); err != nil {
			errs = append(errs, err)
			continue
		}
		switch stage {
		case journal.StageCompleted:
			report.Completed++
		case journal.StageAborted:
			report.Aborted++
		default:
			report.Conflicted++
			log.Printf("journal %s: sale of %d x %s needs review: %s", e.ID, e.Quantity, e.ItemID, note)
		}
	}
	return report, errors.Join(errs...)
}

func (c *Coordinator) resolve(ctx context.Context, e journal.Entry) (journal.Stage, string, error) {
	if e.Stage == journal.StagePending {
		item, ok := c.inventory.Get(e.ItemID)
		switch {
		case !ok:
			return journal.StageConflicted, "item no longer in inventory", nil
		case item.Quantity == e.PriorQuantity:
			return journal.StageAborted, "stock was never decremented", nil
		case item.Quantity != e.NewQuantity:
			return journal.StageConflicted, fmt.Sprintf("stock is %d, expected %d or %d", item.Quantity, e.PriorQuantity, e.NewQuantity), nil
		}
	}
	done, err := c.recorded(ctx, e)
	if err != nil {
		return "", "", err
	}
	if done {
		return journal.StageCompleted, "sale already recorded", nil
	}
	if _, err := c.sales.Record(e.ItemID, e.ItemName, e.Quantity); err != nil {
		return "", "", err
	}
	return journal.StageCompleted, "sale recorded on recovery", nil
}

// recorded reports whether a sale matching e was appended at or after the
// entry began, which happens when only the final journal update was lost.
// Matching records are first handed to completed entries begun after e.
func (c *Coordinator) recorded(ctx context.Context, e journal.Entry) (bool, error) {
	completed, err := c.journal.Completed(ctx, e.ItemID, e.Quantity)
	if err != nil {
		return false, err
	}
	claimed := 0
	for _, o := range completed {
		if o.ID != e.ID && !o.CreatedAt.Before(e.CreatedAt) {
			claimed++
		}
	}

	begun := domain.DateOf(e.CreatedAt.Local())
	at := e.CreatedAt.Local().Format(domain.TimeLayout)
	matches := 0
	for _, s := range c.sales.All() {
		if s.ItemID != e.ItemID || s.Quantity != e.Quantity {
			continue
		}
		if begun.Before(s.Date) || (s.Date == begun && s.Time >= at) {
			matches++
		}
	}
	return matches > claimed, nil
}
