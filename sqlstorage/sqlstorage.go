package sqlstorage

import (
	"errors"
	"fmt"

	"github.com/dreamerjackson/statscraper/sqldb"
	"github.com/dreamerjackson/statscraper/table"
	"go.uber.org/zap"
)

// Bookkeeping columns added to every table. The leading underscore keeps
// them apart from scraped column labels.
const (
	RunIDColumn = "_run_id"
	TimeColumn  = "_time"
)

// SQLStorage writes each task's result set to a table named after the task.
type SQLStorage struct {
	db    sqldb.DBer
	Table map[string]struct{}
	options
}

func New(opts ...Option) (*SQLStorage, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	db, err := sqldb.New(
		sqldb.WithConnURL(options.sqlURL),
		sqldb.WithLogger(options.logger),
	)
	if err != nil {
		return nil, err
	}

	return newWithDB(db, options), nil
}

func newWithDB(db sqldb.DBer, options options) *SQLStorage {
	if options.BatchCount <= 0 {
		options.BatchCount = defaultOptions.BatchCount
	}

	return &SQLStorage{
		db:      db,
		Table:   make(map[string]struct{}),
		options: options,
	}
}

func (s *SQLStorage) Save(name string, t *table.Table) error {
	if name == "" {
		return errors.New("table name can not be empty")
	}

	if t == nil || len(t.Header) == 0 {
		return fmt.Errorf("table %s: no columns", name)
	}

	for _, h := range t.Header {
		if h == RunIDColumn || h == TimeColumn {
			return fmt.Errorf("table %s: column %q is reserved", name, h)
		}
	}

	columns := getFields(t.Header)

	if _, ok := s.Table[name]; !ok {
		if s.Replace {
			if err := s.db.DropTable(sqldb.TableData{TableName: name}); err != nil {
				return fmt.Errorf("drop table %s failed: %w", name, err)
			}
		}

		err := s.db.CreateTable(sqldb.TableData{
			TableName:   name,
			ColumnNames: columns,
			AutoKey:     true,
		})
		if err != nil {
			return fmt.Errorf("create table %s failed: %w", name, err)
		}

		s.Table[name] = struct{}{}
	}

	stamp := s.now().Format("2006-01-02 15:04:05")

	for start := 0; start < t.Len(); start += s.BatchCount {
		end := min(start+s.BatchCount, t.Len())

		args := make([]interface{}, 0, (end-start)*len(columns))
		for _, row := range t.Rows[start:end] {
			for _, v := range row.Values() {
				args = append(args, v)
			}
			args = append(args, s.RunID, stamp)
		}

		err := s.db.Insert(sqldb.TableData{
			TableName:   name,
			ColumnNames: columns,
			Args:        args,
			DataCount:   end - start,
		})
		if err != nil {
			return fmt.Errorf("insert into %s failed: %w", name, err)
		}

		s.logger.Debug("batch inserted", zap.String("table", name), zap.Int("rows", end-start))
	}

	s.logger.Info("table stored", zap.String("table", name), zap.Int("rows", t.Len()))

	return nil
}

func getFields(header []string) []sqldb.Field {
	columnNames := make([]sqldb.Field, 0, len(header)+2)
	for _, field := range header {
		columnNames = append(columnNames, sqldb.Field{
			Title: field,
			Type:  "MEDIUMTEXT",
		})
	}

	columnNames = append(columnNames,
		sqldb.Field{Title: RunIDColumn, Type: "VARCHAR(32)"},
		sqldb.Field{Title: TimeColumn, Type: "VARCHAR(255)"},
	)

	return columnNames
}
