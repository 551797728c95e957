package recordstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medstock/m/domain"
)

type pair struct {
	Key   string
	Count int
}

type pairCodec struct{}

func (pairCodec) Header() []string { return []string{"Key", "Count"} }

func (pairCodec) Encode(p pair) []string {
	return []string{p.Key, strconv.Itoa(p.Count)}
}

func (pairCodec) Decode(row []string) (pair, error) {
	n, err := strconv.Atoi(row[1])
	if err != nil {
		return pair{}, fmt.Errorf("count %q is not an integer", row[1])
	}
	return pair{Key: row[0], Count: n}, nil
}

func TestOpenMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.csv")

	table, err := Open[pair](path, pairCodec{})
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.Rows())

	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "open must not create the file")
}

func TestReplaceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pairs.csv")
	table, err := Open[pair](path, pairCodec{})
	require.NoError(t, err)

	rows := []pair{{Key: "a", Count: 1}, {Key: "b, with comma", Count: 2}}
	require.NoError(t, table.Replace(rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Key,Count\na,1\n\"b, with comma\",2\n", string(data))

	reopened, err := Open[pair](path, pairCodec{})
	require.NoError(t, err)
	assert.Equal(t, rows, reopened.Rows())

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRowsReturnsCopy(t *testing.T) {
	table, err := Open[pair](filepath.Join(t.TempDir(), "pairs.csv"), pairCodec{})
	require.NoError(t, err)
	require.NoError(t, table.Replace([]pair{{Key: "a", Count: 1}}))

	rows := table.Rows()
	rows[0].Count = 99

	assert.Equal(t, 1, table.Rows()[0].Count)
}

func TestReplaceFailureKeepsPriorState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pairs.csv")
	table, err := Open[pair](path, pairCodec{})
	require.NoError(t, err)
	require.NoError(t, table.Replace([]pair{{Key: "a", Count: 1}}))

	// A directory at the target path makes the final rename fail.
	blocked := filepath.Join(dir, "blocked.csv")
	require.NoError(t, os.Mkdir(blocked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocked, "keep"), nil, 0o644))
	other, err := Open[pair](filepath.Join(dir, "other.csv"), pairCodec{})
	require.NoError(t, err)
	other.path = blocked

	err = other.Replace([]pair{{Key: "x", Count: 5}})
	require.Error(t, err)
	assert.Empty(t, other.Rows())

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	assert.Equal(t, []pair{{Key: "a", Count: 1}}, table.Rows())
}

func TestOpenCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
	}{
		{name: "empty file", content: "", line: 0},
		{name: "wrong header", content: "Key,Total\na,1\n", line: 1},
		{name: "missing field", content: "Key,Count\na,1\nb\n", line: 3},
		{name: "extra field", content: "Key,Count\na,1,extra\n", line: 2},
		{name: "bad value", content: "Key,Count\na,one\n", line: 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pairs.csv")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			_, err := Open[pair](path, pairCodec{})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrCorruptStore)

			var corrupt *CorruptStoreError
			require.ErrorAs(t, err, &corrupt)
			assert.Equal(t, path, corrupt.Path)
			assert.Equal(t, tc.line, corrupt.Line)
		})
	}
}
