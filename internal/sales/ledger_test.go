package sales

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstock/m/domain"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func openLedger(t *testing.T, c *clock) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	l, err := Open(path, c.now)
	require.NoError(t, err)
	return l, path
}

func TestRecordStampsDateAndTime(t *testing.T) {
	c := &clock{t: time.Date(2026, 4, 2, 9, 5, 7, 0, time.Local)}
	l, path := openLedger(t, c)

	sale, err := l.Record("P1", "Paracetamol", 40)
	require.NoError(t, err)
	assert.Equal(t, domain.Sale{
		ItemID:   "P1",
		ItemName: "Paracetamol",
		Quantity: 40,
		Date:     domain.Date{Year: 2026, Month: 4, Day: 2},
		Time:     "09:05:07",
	}, sale)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Item ID,Item Name,Quantity,Date,Time\nP1,Paracetamol,40,2026-04-02,09:05:07\n", string(data))
}

func TestRecordIsUnconditionalAppend(t *testing.T) {
	c := &clock{t: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)}
	l, path := openLedger(t, c)

	_, err := l.Record("P1", "Paracetamol", 1)
	require.NoError(t, err)
	c.t = c.t.Add(time.Minute)
	_, err = l.Record("P1", "Paracetamol", 1)
	require.NoError(t, err)
	c.t = c.t.Add(time.Minute)
	_, err = l.Record("ghost", "", 5)
	require.NoError(t, err)

	all := l.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"09:00:00", "09:01:00", "09:02:00"}, []string{all[0].Time, all[1].Time, all[2].Time})
	assert.Equal(t, 3, l.Count())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, all, reopened.All())
}

func TestAllReturnsCopy(t *testing.T) {
	c := &clock{t: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)}
	l, _ := openLedger(t, c)
	_, err := l.Record("P1", "Paracetamol", 1)
	require.NoError(t, err)

	all := l.All()
	all[0].Quantity = 500

	assert.Equal(t, 1, l.All()[0].Quantity)
}

func TestBetweenAndSummarize(t *testing.T) {
	c := &clock{t: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
	l, _ := openLedger(t, c)
	record := func(day int, id, name string, qty int) {
		c.t = time.Date(2026, 4, day, 10, 0, 0, 0, time.UTC)
		_, err := l.Record(id, name, qty)
		require.NoError(t, err)
	}
	record(1, "P1", "Paracetamol", 5)
	record(2, "A1", "Aspirin", 3)
	record(2, "P1", "Paracetamol 500", 2)
	record(3, "A1", "Aspirin", 10)

	from := domain.Date{Year: 2026, Month: 4, Day: 2}
	to := domain.Date{Year: 2026, Month: 4, Day: 2}

	assert.Len(t, l.Between(nil, nil), 4)
	assert.Len(t, l.Between(&from, nil), 3)
	assert.Len(t, l.Between(nil, &to), 3)
	assert.Len(t, l.Between(&from, &to), 2)

	sum := l.Summarize(nil, nil)
	assert.Equal(t, 4, sum.Sales)
	assert.Equal(t, 20, sum.Units)
	assert.Equal(t, []ItemTotal{
		{ItemID: "A1", ItemName: "Aspirin", Units: 13, Sales: 2},
		{ItemID: "P1", ItemName: "Paracetamol 500", Units: 7, Sales: 2},
	}, sum.ByItem)

	empty := l.Summarize(&domain.Date{Year: 2027, Month: 1, Day: 1}, nil)
	assert.Equal(t, Summary{ByItem: []ItemTotal{}}, empty)
}

func TestOpenRejectsCorruptSales(t *testing.T) {
	tests := map[string]string{
		"old header": "Item ID,Item Name,Quantity,Date\n",
		"bad time":   "Item ID,Item Name,Quantity,Date,Time\nP1,Paracetamol,1,2026-01-01,noon\n",
		"bad date":   "Item ID,Item Name,Quantity,Date,Time\nP1,Paracetamol,1,01/01/2026,10:00:00\n",
		"zero":       "Item ID,Item Name,Quantity,Date,Time\nP1,Paracetamol,0,2026-01-01,10:00:00\n",
		"negative":   "Item ID,Item Name,Quantity,Date,Time\nP1,Paracetamol,-2,2026-01-01,10:00:00\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sales.csv")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := Open(path, nil)
			assert.ErrorIs(t, err, domain.ErrCorruptStore)
		})
	}
}
