// Package journal records each sale before it touches the inventory or the
// sales history, so a sale interrupted between the two writes can be
// finished on the next start.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.jetify.com/typeid/v2"
)

// Stage is where a journalled sale stands.
type Stage string

const (
	StagePending      Stage = "pending"
	StageStockApplied Stage = "stock_applied"
	StageCompleted    Stage = "completed"
	StageAborted      Stage = "aborted"
	StageConflicted   Stage = "conflicted"
)

// Open reports whether entries in s still need recovery.
func (s Stage) Open() bool {
	return s == StagePending || s == StageStockApplied
}

const idPrefix = "sale"

// ErrUnknownEntry is returned when advancing an id that was never begun.
var ErrUnknownEntry = errors.New("journal entry not found")

// Entry is one journalled sale.
type Entry struct {
	ID            string    `json:"id"`
	ItemID        string    `json:"item_id"`
	ItemName      string    `json:"item_name"`
	Quantity      int       `json:"quantity"`
	PriorQuantity int       `json:"prior_quantity"`
	NewQuantity   int       `json:"new_quantity"`
	Stage         Stage     `json:"stage"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type entryRow struct {
	ID            string `db:"id"`
	ItemID        string `db:"item_id"`
	ItemName      string `db:"item_name"`
	Quantity      int    `db:"quantity"`
	PriorQuantity int    `db:"prior_quantity"`
	NewQuantity   int    `db:"new_quantity"`
	Stage         string `db:"stage"`
	Note          string `db:"note"`
	CreatedAt     string `db:"created_at"`
	UpdatedAt     string `db:"updated_at"`
}

func (r entryRow) entry() (Entry, error) {
	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("journal entry %s: created_at: %w", r.ID, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, r.UpdatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("journal entry %s: updated_at: %w", r.ID, err)
	}
	return Entry{
		ID:            r.ID,
		ItemID:        r.ItemID,
		ItemName:      r.ItemName,
		Quantity:      r.Quantity,
		PriorQuantity: r.PriorQuantity,
		NewQuantity:   r.NewQuantity,
		Stage:         Stage(r.Stage),
		Note:          r.Note,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}, nil
}

// Journal stores entries in the sale_journal table.
type Journal struct {
	db  *sqlx.DB
	now func() time.Time
}

// New returns a journal over db. The schema comes from migrations.Run.
func New(db *sqlx.DB) *Journal {
	return &Journal{db: db, now: time.Now}
}

// Begin stores e as pending and returns it with its id and timestamps set.
func (j *Journal) Begin(ctx context.Context, e Entry) (Entry, error) {
	tid, err := typeid.Generate(idPrefix)
	if err != nil {
		return Entry{}, fmt.Errorf("generate journal id: %w", err)
	}
	now := j.now().UTC()
	e.ID = tid.String()
	e.Stage = StagePending
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err = j.db.ExecContext(ctx, `INSERT INTO sale_journal (id, item_id, item_name, quantity, prior_quantity, new_quantity, stage, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.ItemID, e.ItemName, e.Quantity, e.PriorQuantity, e.NewQuantity, string(e.Stage), e.Note,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return Entry{}, fmt.Errorf("begin journal entry: %w", err)
	}
	return e, nil
}

// Advance moves entry id to stage, attaching note when non-empty.
func (j *Journal) Advance(ctx context.Context, id string, stage Stage, note string) error {
	res, err := j.db.ExecContext(ctx, `UPDATE sale_journal SET stage = $1, note = COALESCE(NULLIF($2, ''), note), updated_at = $3 WHERE id = $4`,
		string(stage), note, j.now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("advance journal entry %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance journal entry %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("advance journal entry %s: %w", id, ErrUnknownEntry)
	}
	return nil
}

// Get loads one entry.
func (j *Journal) Get(ctx context.Context, id string) (Entry, error) {
	var row entryRow
	err := j.db.GetContext(ctx, &row, `SELECT id, item_id, item_name, quantity, prior_quantity, new_quantity, stage, note, created_at, updated_at
		FROM sale_journal WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("load journal entry %s: %w", id, ErrUnknownEntry)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("load journal entry %s: %w", id, err)
	}
	return row.entry()
}

// Pending returns entries that were begun but never finished, oldest first.
func (j *Journal) Pending(ctx context.Context) ([]Entry, error) {
	var rows []entryRow
	err := j.db.SelectContext(ctx, &rows, `SELECT id, item_id, item_name, quantity, prior_quantity, new_quantity, stage, note, created_at, updated_at
		FROM sale_journal WHERE stage IN ($1, $2) ORDER BY created_at, id`,
		string(StagePending), string(StageStockApplied))
	if err != nil {
		return nil, fmt.Errorf("list pending journal entries: %w", err)
	}
	return toEntries(rows)
}

// Completed returns the finished sales of quantity units of itemID, oldest
// first.
func (j *Journal) Completed(ctx context.Context, itemID string, quantity int) ([]Entry, error) {
	var rows []entryRow
	err := j.db.SelectContext(ctx, &rows, `SELECT id, item_id, item_name, quantity, prior_quantity, new_quantity, stage, note, created_at, updated_at
		FROM sale_journal WHERE stage = $1 AND item_id = $2 AND quantity = $3 ORDER BY created_at, id`,
		string(StageCompleted), itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("list completed journal entries for %s: %w", itemID, err)
	}
	return toEntries(rows)
}

func toEntries(rows []entryRow) ([]Entry, error) {
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
