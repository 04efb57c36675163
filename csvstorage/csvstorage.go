package csvstorage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dreamerjackson/statscraper/table"
	"go.uber.org/zap"
)

type options struct {
	logger *zap.Logger
	dir    string
}

var defaultOptions = options{
	logger: zap.NewNop(),
	dir:    ".",
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithDir(dir string) Option {
	return func(opts *options) {
		opts.dir = dir
	}
}

// CSVStorage writes each result set to <dir>/<name>.csv, replacing any
// earlier file of the same name.
type CSVStorage struct {
	options
}

func New(opts ...Option) *CSVStorage {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	return &CSVStorage{options: options}
}

func (s *CSVStorage) Path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

func (s *CSVStorage) Save(name string, t *table.Table) (err error) {
	if name == "" {
		return errors.New("file name can not be empty")
	}

	if t == nil {
		return fmt.Errorf("%s: nil table", name)
	}

	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return err
	}

	if err := w.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write %s failed: %w", path, err)
	}

	s.logger.Info("csv written", zap.String("path", path), zap.Int("rows", t.Len()))

	return nil
}
