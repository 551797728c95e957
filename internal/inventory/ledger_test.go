package inventory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstock/m/domain"
)

var fixedNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func openLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.csv")
	l, err := Open(path, func() time.Time { return fixedNow })
	require.NoError(t, err)
	return l, path
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func ids(items []domain.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestAddAndDuplicate(t *testing.T) {
	l, _ := openLedger(t)

	item, err := l.Add("A100", "Aspirin", 10, "2026/05/01")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01", item.ExpirationDate.String())

	_, err = l.Add(" A100 ", "Other", 3, "2026-06-01")
	require.ErrorIs(t, err, domain.ErrDuplicateID)

	all := l.All()
	require.Len(t, all, 1)
	assert.Equal(t, domain.Item{ID: "A100", Name: "Aspirin", Quantity: 10, ExpirationDate: domain.Date{Year: 2026, Month: 5, Day: 1}}, all[0])
}

func TestAddInvalidDateLeavesLedgerUnchanged(t *testing.T) {
	l, path := openLedger(t)

	_, err := l.Add("A1", "Aspirin", 10, "not a date")
	require.ErrorIs(t, err, domain.ErrInvalidDate)
	assert.Empty(t, l.All())

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAddPersists(t *testing.T) {
	l, path := openLedger(t)
	_, err := l.Add("P1", "Paracetamol", 100, "2025-01-01")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID,Name,Quantity,Expiration Date\nP1,Paracetamol,100,2025-01-01\n", string(data))

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, l.All(), reopened.All())
}

func TestEditPartialUpdate(t *testing.T) {
	l, _ := openLedger(t)
	_, err := l.Add("P1", "Paracetamol", 100, "2025-01-01")
	require.NoError(t, err)

	item, err := l.Edit("P1", Changes{Quantity: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, "2025-01-01", item.ExpirationDate.String())

	item, err = l.Edit("  P1\t", Changes{ExpirationDate: strPtr("Feb 3 2027")})
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, "2027-02-03", item.ExpirationDate.String())

	got, ok := l.Get("P1")
	require.True(t, ok)
	assert.Equal(t, item, got)
}

func TestEditErrors(t *testing.T) {
	l, _ := openLedger(t)
	_, err := l.Add("P1", "Paracetamol", 100, "2025-01-01")
	require.NoError(t, err)

	_, err = l.Edit("missing", Changes{Quantity: intPtr(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = l.Edit("P1", Changes{Quantity: intPtr(7), ExpirationDate: strPtr("2025-02-31")})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = l.Edit("P1", Changes{Quantity: intPtr(-1)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, _ := l.Get("P1")
	assert.Equal(t, 100, got.Quantity, "failed edits must not apply any field")
}

func TestDelete(t *testing.T) {
	l, path := openLedger(t)
	_, err := l.Add("P1", "Paracetamol", 100, "2025-01-01")
	require.NoError(t, err)
	_, err = l.Add("P2", "Ibuprofen", 20, "2025-01-01")
	require.NoError(t, err)

	require.NoError(t, l.Delete("unknown"))
	assert.Len(t, l.All(), 2)

	require.NoError(t, l.Delete(" P1 "))
	assert.Equal(t, []string{"P2"}, ids(l.All()))

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"P2"}, ids(reopened.All()))
}

func TestAllReturnsCopy(t *testing.T) {
	l, _ := openLedger(t)
	_, err := l.Add("P1", "Paracetamol", 100, "2025-01-01")
	require.NoError(t, err)

	all := l.All()
	all[0].Quantity = 0
	all[0].Name = "changed"

	got, _ := l.Get("P1")
	assert.Equal(t, 100, got.Quantity)
	assert.Equal(t, "Paracetamol", got.Name)
}

func TestSearch(t *testing.T) {
	l, _ := openLedger(t)
	for _, it := range []struct{ id, name string }{
		{"A100", "Aspirin"},
		{"B200", "Ibuprofen"},
		{"C300", "Paracetamol 100mg"},
	} {
		_, err := l.Add(it.id, it.name, 1, "2027-01-01")
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"A100", "B200", "C300"}, ids(l.Search("")))
	assert.Equal(t, []string{"A100"}, ids(l.Search("a1")))
	assert.Equal(t, []string{"A100"}, ids(l.Search("ASP")))
	assert.Equal(t, []string{"A100", "C300"}, ids(l.Search("100")))
	assert.Equal(t, []string{"B200"}, ids(l.Search("PROF")))
	assert.Empty(t, l.Search("zzz"))
}

func TestCheckExpirations(t *testing.T) {
	l, _ := openLedger(t)
	today := domain.DateOf(fixedNow)
	offsets := map[string]int{
		"expired": -5,
		"today":   0,
		"day30":   30,
		"day31":   31,
		"far":     365,
	}
	for id, offset := range offsets {
		_, err := l.Add(id, id, 1, today.AddDays(offset).String())
		require.NoError(t, err)
	}

	got := ids(l.CheckExpirations(DefaultExpiryWindow))
	assert.ElementsMatch(t, []string{"expired", "today", "day30"}, got)

	got = ids(l.CheckExpirations(0))
	assert.ElementsMatch(t, []string{"expired", "today"}, got)
}

func TestCheckExpirationsFollowsClock(t *testing.T) {
	now := fixedNow
	path := filepath.Join(t.TempDir(), "inventory.csv")
	l, err := Open(path, func() time.Time { return now })
	require.NoError(t, err)
	_, err = l.Add("P1", "Paracetamol", 1, domain.DateOf(fixedNow).AddDays(40).String())
	require.NoError(t, err)

	assert.Empty(t, l.CheckExpirations(DefaultExpiryWindow))

	now = fixedNow.AddDate(0, 0, 10)
	assert.Len(t, l.CheckExpirations(DefaultExpiryWindow), 1)
}

func TestExpiryWindowDays(t *testing.T) {
	w, err := ExpiryWindowDays(7)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, w)

	w, err = ExpiryWindowDays(MaxExpiryWindowDays)
	require.NoError(t, err)
	assert.Positive(t, w)

	for _, days := range []int{-1, MaxExpiryWindowDays + 1} {
		_, err := ExpiryWindowDays(days)
		assert.ErrorIs(t, err, domain.ErrValidation, days)
	}
}

func TestCheckExpirationsAcrossDaylightSaving(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("no zone database: %v", err)
	}
	tests := map[string]time.Time{
		"fall back":      time.Date(2026, 10, 20, 0, 30, 0, 0, ny),
		"spring forward": time.Date(2026, 2, 20, 23, 30, 0, 0, ny),
	}
	for name, now := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "inventory.csv")
			l, err := Open(path, func() time.Time { return now })
			require.NoError(t, err)
			today := domain.DateOf(now)
			_, err = l.Add("day30", "day30", 1, today.AddDays(30).String())
			require.NoError(t, err)
			_, err = l.Add("day31", "day31", 1, today.AddDays(31).String())
			require.NoError(t, err)

			assert.Equal(t, []string{"day30"}, ids(l.CheckExpirations(DefaultExpiryWindow)))
		})
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	tests := map[string]string{
		"bad header":   "Id,Name,Qty,Expiry\n",
		"missing cell": "ID,Name,Quantity,Expiration Date\nP1,Paracetamol,100\n",
		"negative":     "ID,Name,Quantity,Expiration Date\nP1,Paracetamol,-1,2025-01-01\n",
		"duplicate":    "ID,Name,Quantity,Expiration Date\nP1,A,1,2025-01-01\nP1,B,1,2025-01-01\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "inventory.csv")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := Open(path, nil)
			assert.ErrorIs(t, err, domain.ErrCorruptStore)
		})
	}
}

func TestOpenNormalisesLegacyRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.csv")
	content := "ID,Name,Quantity,Expiration Date\n 42 ,Amoxicillin,7,2025-03-04 00:00:00\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l, err := Open(path, nil)
	require.NoError(t, err)

	got, ok := l.Get("42")
	require.True(t, ok)
	assert.Equal(t, "2025-03-04", got.ExpirationDate.String())
}
