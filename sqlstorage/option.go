package sqlstorage

import (
	"time"

	"go.uber.org/zap"
)

type options struct {
	logger     *zap.Logger
	sqlURL     string
	BatchCount int // 批量数
	RunID      string
	Replace    bool // 每次运行先删除旧表
	now        func() time.Time
}

var defaultOptions = options{
	logger:     zap.NewNop(),
	BatchCount: 100,
	now:        time.Now,
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithSQLURL(sqlURL string) Option {
	return func(opts *options) {
		opts.sqlURL = sqlURL
	}
}

func WithBatchCount(batchCount int) Option {
	return func(opts *options) {
		opts.BatchCount = batchCount
	}
}

// WithRunID tags every stored row with the id of the run that produced it.
func WithRunID(id string) Option {
	return func(opts *options) {
		opts.RunID = id
	}
}

// WithReplace drops a task's table before its first write of the run,
// so the table holds only the latest result set.
func WithReplace(replace bool) Option {
	return func(opts *options) {
		opts.Replace = replace
	}
}
