package sqldb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

type DBer interface {
	CreateTable(t TableData) error
	DropTable(t TableData) error
	Insert(t TableData) error
}

type Sqldb struct {
	options
	db *sql.DB
}

type Field struct {
	Title string
	Type  string
}

type TableData struct {
	TableName   string
	ColumnNames []Field       // 标题字段
	Args        []interface{} // 数据，按行依次展开
	DataCount   int           // 插入数据的行数
	AutoKey     bool
}

func New(opts ...Option) (*Sqldb, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	d := &Sqldb{}
	d.options = options

	if err := d.OpenDB(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Sqldb) OpenDB() error {
	db, err := sql.Open("mysql", d.sqlURL)
	if err != nil {
		return err
	}

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping mysql failed: %w", err)
	}

	d.db = db

	return nil
}

func (d *Sqldb) Close() error {
	if d.db == nil {
		return nil
	}

	return d.db.Close()
}

// Quote escapes an identifier for MySQL.
func Quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func createTableSQL(t TableData) (string, error) {
	if t.TableName == "" {
		return "", errors.New("table name can not be empty")
	}

	if len(t.ColumnNames) == 0 {
		return "", errors.New("column can not be empty")
	}

	sql := `CREATE TABLE IF NOT EXISTS ` + Quote(t.TableName) + " ("

	if t.AutoKey {
		sql += `id INT(12) NOT NULL PRIMARY KEY AUTO_INCREMENT,`
	}

	for _, c := range t.ColumnNames {
		sql += Quote(c.Title) + ` ` + c.Type + `,`
	}

	sql = sql[:len(sql)-1] + `) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

	return sql, nil
}

func insertSQL(t TableData) (string, error) {
	if len(t.ColumnNames) == 0 {
		return "", errors.New("empty column")
	}

	if t.DataCount <= 0 {
		return "", errors.New("no data to insert")
	}

	if len(t.Args) != t.DataCount*len(t.ColumnNames) {
		return "", fmt.Errorf("got %d args for %d rows of %d columns", len(t.Args), t.DataCount, len(t.ColumnNames))
	}

	sql := `INSERT INTO ` + Quote(t.TableName) + `(`

	for _, v := range t.ColumnNames {
		sql += Quote(v.Title) + ","
	}

	sql = sql[:len(sql)-1] + `) VALUES `

	blank := ",(" + strings.Repeat(",?", len(t.ColumnNames))[1:] + ")"
	sql += strings.Repeat(blank, t.DataCount)[1:] + `;`

	return sql, nil
}

func (d *Sqldb) CreateTable(t TableData) error {
	sql, err := createTableSQL(t)
	if err != nil {
		return err
	}

	d.logger.Debug("create table", zap.String("sql", sql))

	_, err = d.db.Exec(sql)

	return err
}

func (d *Sqldb) DropTable(t TableData) error {
	if t.TableName == "" {
		return errors.New("table name can not be empty")
	}

	sql := `DROP TABLE IF EXISTS ` + Quote(t.TableName)

	d.logger.Debug("drop table", zap.String("sql", sql))

	_, err := d.db.Exec(sql)

	return err
}

func (d *Sqldb) Insert(t TableData) error {
	sql, err := insertSQL(t)
	if err != nil {
		return err
	}

	d.logger.Debug("insert table", zap.String("sql", sql), zap.Int("rows", t.DataCount))

	_, err = d.db.Exec(sql, t.Args...)

	return err
}
