// Package recordstore keeps a homogeneous collection of records in memory and
// persists it as a CSV file with a fixed header row.
package recordstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"medstock/m/domain"
)

// Codec maps one record type to and from a CSV row.
type Codec[T any] interface {
	Header() []string
	Encode(T) []string
	Decode(row []string) (T, error)
}

// CorruptStoreError reports persisted data that does not match the schema.
type CorruptStoreError struct {
	Path   string
	Line   int
	Reason string
}

func (e *CorruptStoreError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("corrupt store %s: line %d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("corrupt store %s: %s", e.Path, e.Reason)
}

func (e *CorruptStoreError) Is(target error) bool {
	return target == domain.ErrCorruptStore
}

// Table is the in-memory image of one CSV file. It is not safe for
// concurrent use; owners serialise access.
type Table[T any] struct {
	path  string
	codec Codec[T]
	rows  []T
}

// Open loads path. A missing file yields an empty table.
func Open[T any](path string, codec Codec[T]) (*Table[T], error) {
	t := &Table[T]{path: path, codec: codec}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := t.read(f)
	if err != nil {
		return nil, err
	}
	t.rows = rows
	return t, nil
}

func (t *Table[T]) read(r io.Reader) ([]T, error) {
	reader := csv.NewReader(r)
	// Field counts are checked against the header below so the error can
	// carry the schema reason.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &CorruptStoreError{Path: t.path, Reason: "missing header row"}
	}
	if err != nil {
		return nil, t.corrupt(err)
	}
	want := t.codec.Header()
	if !slices.Equal(header, want) {
		return nil, &CorruptStoreError{Path: t.path, Line: 1, Reason: fmt.Sprintf("header %q does not match %q", header, want)}
	}

	var rows []T
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, t.corrupt(err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) != len(want) {
			return nil, &CorruptStoreError{Path: t.path, Line: line, Reason: fmt.Sprintf("expected %d fields, got %d", len(want), len(record))}
		}
		row, err := t.codec.Decode(record)
		if err != nil {
			return nil, &CorruptStoreError{Path: t.path, Line: line, Reason: err.Error()}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (t *Table[T]) corrupt(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &CorruptStoreError{Path: t.path, Line: parseErr.Line, Reason: parseErr.Err.Error()}
	}
	return fmt.Errorf("read %s: %w", t.path, err)
}

// Path returns the backing file.
func (t *Table[T]) Path() string {
	return t.path
}

// Rows returns a copy of the current collection.
func (t *Table[T]) Rows() []T {
	return slices.Clone(t.rows)
}

// Len returns the number of rows.
func (t *Table[T]) Len() int {
	return len(t.rows)
}

// Replace persists rows as the whole collection and then adopts them. When
// persisting fails the previous file and the previous rows stay in place.
func (t *Table[T]) Replace(rows []T) error {
	if err := t.write(rows); err != nil {
		return err
	}
	t.rows = slices.Clone(rows)
	return nil
}

func (t *Table[T]) write(rows []T) (err error) {
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(t.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", t.path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(t.codec.Header()); err != nil {
		return fmt.Errorf("write %s: %w", t.path, err)
	}
	for _, row := range rows {
		if err := w.Write(t.codec.Encode(row)); err != nil {
			return fmt.Errorf("write %s: %w", t.path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", t.path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", t.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", t.path, err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return fmt.Errorf("replace %s: %w", t.path, err)
	}
	return nil
}
