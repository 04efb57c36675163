package spider

import (
	"time"

	"github.com/dreamerjackson/statscraper/collect"
	"github.com/dreamerjackson/statscraper/limiter"
	"github.com/dreamerjackson/statscraper/table"
	"go.uber.org/zap"
)

// 一个抓取任务：列表页 + 可选的详情页
type Task struct {
	Options
	Listing table.Spec
	Detail  *Detail
}

// Detail is the second stage of a task: every listing row links to a page
// holding a sub-table of its own.
type Detail struct {
	LinkColumn string // listing column holding the detail url
	BaseURL    string // resolves relative links, defaults to the listing url
	// Keys are listing columns; one sub-table is read per key value, its
	// selector is Spec.Selector with "{key}" replaced by the value.
	Keys    []string
	KeyName string   // output column for the key value
	Carry   []string // listing columns copied in front of every detail row
	Spec    table.Spec
}

// Header is the shape of every row a two-stage task produces.
func (d *Detail) Header() []string {
	header := append([]string{}, d.Carry...)
	if len(d.Keys) > 0 {
		header = append(header, d.KeyName)
	}

	return append(header, d.Spec.Header()...)
}

type Options struct {
	Name     string        `json:"name"` // 任务名称，同时作为输出文件名/表名
	URL      string        `json:"url"`
	Render   bool          `json:"render"`    // 页面需要执行脚本才能生成表格
	WaitTime time.Duration `json:"wait_time"` // 两次页面访问之间的固定间隔
	Fetcher  collect.Fetcher
	Storage  DataRepository
	Limit    limiter.RateLimiter
	logger   *zap.Logger
}

var defaultOptions = Options{
	logger:   zap.NewNop(),
	WaitTime: 3 * time.Second,
}

type Option func(opts *Options)

func NewTask(listing table.Spec, detail *Detail, opts ...Option) *Task {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	t := &Task{
		Options: options,
		Listing: listing,
		Detail:  detail,
	}

	return t
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

func WithName(name string) Option {
	return func(opts *Options) {
		opts.Name = name
	}
}

func WithURL(url string) Option {
	return func(opts *Options) {
		opts.URL = url
	}
}

func WithRender(render bool) Option {
	return func(opts *Options) {
		opts.Render = render
	}
}

func WithWaitTime(waitTime time.Duration) Option {
	return func(opts *Options) {
		opts.WaitTime = waitTime
	}
}

func WithFetcher(f collect.Fetcher) Option {
	return func(opts *Options) {
		opts.Fetcher = f
	}
}

func WithStorage(s DataRepository) Option {
	return func(opts *Options) {
		opts.Storage = s
	}
}

func WithLimit(l limiter.RateLimiter) Option {
	return func(opts *Options) {
		opts.Limit = l
	}
}
