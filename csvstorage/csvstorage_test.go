package csvstorage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dreamerjackson/statscraper/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVStorage_Save(t *testing.T) {
	dir := t.TempDir()
	s := New(WithDir(filepath.Join(dir, "out")))

	tb := table.New([]string{"Name", "Country"})
	require.NoError(t, tb.Append("Smith, John", "CAN"))
	tb.AppendSentinel()

	require.NoError(t, s.Save("nhl_players", tb))

	b, err := os.ReadFile(filepath.Join(dir, "out", "nhl_players.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Name,Country\n\"Smith, John\",CAN\nN/A,N/A\n", string(b))

	// a second run replaces the file
	tb = table.New([]string{"Name"})
	require.NoError(t, s.Save("nhl_players", tb))

	b, err = os.ReadFile(s.Path("nhl_players"))
	require.NoError(t, err)
	assert.Equal(t, "Name\n", string(b))
}

func TestCSVStorage_SaveErrors(t *testing.T) {
	s := New(WithDir(t.TempDir()))
	assert.Error(t, s.Save("", table.New([]string{"Name"})))
	assert.Error(t, s.Save("x", nil))
}
