package sqlstorage

import (
	"errors"
	"testing"
	"time"

	"github.com/dreamerjackson/statscraper/sqldb"
	"github.com/dreamerjackson/statscraper/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mysqldb struct {
	dropped   []string
	created   []sqldb.TableData
	inserted  []sqldb.TableData
	insertErr error
}

func (m *mysqldb) CreateTable(t sqldb.TableData) error {
	m.created = append(m.created, t)
	return nil
}

func (m *mysqldb) DropTable(t sqldb.TableData) error {
	m.dropped = append(m.dropped, t.TableName)
	return nil
}

func (m *mysqldb) Insert(t sqldb.TableData) error {
	m.inserted = append(m.inserted, t)
	return m.insertErr
}

func games(t *testing.T, n int) *table.Table {
	tb := table.New([]string{"Player", "G"})
	for i := 0; i < n; i++ {
		require.NoError(t, tb.Append("Point", "1"))
	}
	return tb
}

func TestSQLStorage_Save(t *testing.T) {
	db := &mysqldb{}
	opts := defaultOptions
	opts.BatchCount = 2
	opts.RunID = "42"
	opts.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	s := newWithDB(db, opts)

	tb := games(t, 3)
	tb.AppendSentinel()

	require.NoError(t, s.Save("nhl_games", tb))
	require.NoError(t, s.Save("nhl_games", games(t, 1)))

	// table is created once per name
	require.Len(t, db.created, 1)
	assert.Equal(t, "nhl_games", db.created[0].TableName)
	assert.True(t, db.created[0].AutoKey)
	assert.Equal(t, []sqldb.Field{
		{Title: "Player", Type: "MEDIUMTEXT"},
		{Title: "G", Type: "MEDIUMTEXT"},
		{Title: "_run_id", Type: "VARCHAR(32)"},
		{Title: "_time", Type: "VARCHAR(255)"},
	}, db.created[0].ColumnNames)

	require.Len(t, db.inserted, 3)
	assert.Equal(t, 2, db.inserted[0].DataCount)
	assert.Equal(t, 2, db.inserted[1].DataCount)
	assert.Equal(t, 1, db.inserted[2].DataCount)
	assert.Equal(t, []interface{}{
		"Point", "1", "42", "2024-01-02 03:04:05",
		"N/A", "N/A", "42", "2024-01-02 03:04:05",
	}, db.inserted[1].Args)
}

func TestSQLStorage_SaveErrors(t *testing.T) {
	s := newWithDB(&mysqldb{}, defaultOptions)
	assert.Error(t, s.Save("", games(t, 1)))
	assert.Error(t, s.Save("nhl_games", table.New(nil)))
	assert.Error(t, s.Save("nhl_games", table.New([]string{"Player", "_time"})))

	s = newWithDB(&mysqldb{insertErr: errors.New("gone away")}, defaultOptions)
	assert.Error(t, s.Save("nhl_games", games(t, 1)))
}

func TestSQLStorage_Empty(t *testing.T) {
	db := &mysqldb{}
	s := newWithDB(db, defaultOptions)

	require.NoError(t, s.Save("nhl_games", games(t, 0)))
	assert.Len(t, db.created, 1)
	assert.Empty(t, db.inserted)
}

func TestSQLStorage_ScrapedTimeColumn(t *testing.T) {
	db := &mysqldb{}
	s := newWithDB(db, defaultOptions)

	tb := table.New([]string{"Player", "Time", "RunID"})
	require.NoError(t, tb.Append("Point", "18:42", "7"))
	require.NoError(t, s.Save("nhl_games", tb))

	require.Len(t, db.created, 1)
	seen := make(map[string]struct{})
	for _, f := range db.created[0].ColumnNames {
		_, dup := seen[f.Title]
		assert.False(t, dup, f.Title)
		seen[f.Title] = struct{}{}
	}
}

func TestSQLStorage_Replace(t *testing.T) {
	db := &mysqldb{}
	opts := defaultOptions
	opts.Replace = true
	s := newWithDB(db, opts)

	require.NoError(t, s.Save("nhl_games", games(t, 1)))
	require.NoError(t, s.Save("nhl_games", games(t, 1)))
	assert.Equal(t, []string{"nhl_games"}, db.dropped)

	s = newWithDB(db, defaultOptions)
	require.NoError(t, s.Save("nhl_players", games(t, 1)))
	assert.Equal(t, []string{"nhl_games"}, db.dropped)
}
