package spider

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dreamerjackson/statscraper/collect"
	"github.com/dreamerjackson/statscraper/limiter"
	"github.com/dreamerjackson/statscraper/table"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TaskConfig is one entry of the Tasks list in the config file. A name
// matching a preset reuses the preset's tables, otherwise Table is required.
type TaskConfig struct {
	Name     string        `json:"name"`
	URL      string        `json:"url"`
	Render   bool          `json:"render"`
	WaitTime string        `json:"wait_time"` // e.g. "3s"
	Table    *TableConfig  `json:"table"`
	Detail   *DetailConfig `json:"detail"`
	Limits   []LimitConfig `json:"limits"`
}

// LimitConfig caps the request rate on top of the fixed wait time,
// e.g. at most 20 pages per minute.
type LimitConfig struct {
	EventCount int `json:"event_count"`
	EventDur   int `json:"event_dur"` // 秒
	Bucket     int `json:"bucket"`    // 桶大小
}

type TableConfig struct {
	Selector  string         `json:"selector"`
	SkipRows  int            `json:"skip_rows"`
	SkipClass string         `json:"skip_class"`
	Uncomment bool           `json:"uncomment"`
	Columns   []ColumnConfig `json:"columns"`
}

type ColumnConfig struct {
	Key         string       `json:"key"`
	Index       int          `json:"index"`
	Stat        string       `json:"stat"`
	Href        bool         `json:"href"`
	HrefPattern string       `json:"href_pattern"`
	Optional    bool         `json:"optional"`
	Script      string       `json:"script"`
	Split       *SplitConfig `json:"split"`
}

type SplitConfig struct {
	Pattern     string             `json:"pattern"`
	Passthrough string             `json:"passthrough"`
	Fields      []SplitFieldConfig `json:"fields"`
}

type SplitFieldConfig struct {
	Key     string `json:"key"`
	Group   string `json:"group"`
	Default string `json:"default"`
}

type DetailConfig struct {
	LinkColumn string      `json:"link_column"`
	BaseURL    string      `json:"base_url"`
	Keys       []string    `json:"keys"`
	KeyName    string      `json:"key_name"`
	Carry      []string    `json:"carry"`
	Table      TableConfig `json:"table"`
}

// Fetchers are the page sources a task can be bound to.
// Render may be nil when no task needs a browser.
type Fetchers struct {
	Static collect.Fetcher
	Render collect.Fetcher
}

func (c TableConfig) Spec() (table.Spec, error) {
	spec := table.Spec{
		Selector:  c.Selector,
		SkipRows:  c.SkipRows,
		SkipClass: c.SkipClass,
		Uncomment: c.Uncomment,
	}

	for _, cc := range c.Columns {
		col := table.Column{
			Key:      cc.Key,
			Index:    cc.Index,
			Stat:     cc.Stat,
			Href:     cc.Href,
			Optional: cc.Optional,
			Script:   cc.Script,
		}

		if cc.HrefPattern != "" {
			re, err := regexp.Compile(cc.HrefPattern)
			if err != nil {
				return table.Spec{}, fmt.Errorf("column %q: %w", cc.Key, err)
			}
			col.HrefPattern = re
		}

		if cc.Split != nil {
			re, err := regexp.Compile(cc.Split.Pattern)
			if err != nil {
				return table.Spec{}, fmt.Errorf("column %q: split: %w", cc.Key, err)
			}

			split := &table.Split{Pattern: re, Passthrough: cc.Split.Passthrough}
			for _, f := range cc.Split.Fields {
				split.Fields = append(split.Fields, table.SplitField{Key: f.Key, Group: f.Group, Default: f.Default})
			}
			col.Split = split
		}

		spec.Columns = append(spec.Columns, col)
	}

	return spec, spec.Validate()
}

// NeedsRender reports whether any configured task loads its pages in a browser.
func NeedsRender(cfgs []TaskConfig) bool {
	for _, cfg := range cfgs {
		if cfg.Render {
			return true
		}
		if t, ok := TaskStore.Get(cfg.Name); ok && t.Render {
			return true
		}
	}

	return false
}

func ParseTaskConfig(logger *zap.Logger, f Fetchers, s DataRepository, cfgs []TaskConfig) ([]*Task, error) {
	tasks := make([]*Task, 0, len(cfgs))
	for _, cfg := range cfgs {
		t, err := taskFromConfig(cfg)
		if err != nil {
			return nil, err
		}

		t.logger = logger
		t.Storage = s
		t.Fetcher = f.Static
		if t.Render {
			if f.Render == nil {
				return nil, fmt.Errorf("task %s: needs a browser but none is configured", t.Name)
			}
			t.Fetcher = f.Render
		}
		if t.Limit, err = newLimiter(t.WaitTime, cfg.Limits); err != nil {
			return nil, fmt.Errorf("task %s: %w", t.Name, err)
		}

		if err := t.Check(); err != nil {
			return nil, err
		}

		tasks = append(tasks, t)
	}

	return tasks, nil
}

// newLimiter combines the fixed spacing between pages with the configured rate caps.
func newLimiter(wait time.Duration, cfgs []LimitConfig) (limiter.RateLimiter, error) {
	fixed := limiter.Fixed(wait)
	if len(cfgs) == 0 {
		return fixed, nil
	}

	limits := []limiter.RateLimiter{fixed}
	for _, lcfg := range cfgs {
		if lcfg.EventCount <= 0 || lcfg.EventDur <= 0 {
			return nil, fmt.Errorf("bad limit %d events per %ds", lcfg.EventCount, lcfg.EventDur)
		}

		bucket := lcfg.Bucket
		if bucket <= 0 {
			bucket = 1
		}

		// speed limiter
		l := rate.NewLimiter(limiter.Per(lcfg.EventCount, time.Duration(lcfg.EventDur)*time.Second), bucket)
		limits = append(limits, l)
	}

	return limiter.Multi(limits...), nil
}

func taskFromConfig(cfg TaskConfig) (*Task, error) {
	if cfg.Name == "" {
		return nil, errors.New("task name can not be empty")
	}

	t, ok := TaskStore.Get(cfg.Name)
	if !ok {
		if cfg.Table == nil {
			return nil, fmt.Errorf("task %s: not a preset and no table configured", cfg.Name)
		}
		t = NewTask(table.Spec{}, nil, WithName(cfg.Name))
	}

	if cfg.URL != "" {
		t.URL = cfg.URL
	}

	t.Render = t.Render || cfg.Render

	if cfg.WaitTime != "" {
		d, err := time.ParseDuration(cfg.WaitTime)
		if err != nil {
			return nil, fmt.Errorf("task %s: wait_time: %w", cfg.Name, err)
		}
		t.WaitTime = d
	}

	if cfg.Table != nil {
		spec, err := cfg.Table.Spec()
		if err != nil {
			return nil, fmt.Errorf("task %s: table: %w", cfg.Name, err)
		}
		t.Listing = spec
	}

	if cfg.Detail != nil {
		spec, err := cfg.Detail.Table.Spec()
		if err != nil {
			return nil, fmt.Errorf("task %s: detail table: %w", cfg.Name, err)
		}
		t.Detail = &Detail{
			LinkColumn: cfg.Detail.LinkColumn,
			BaseURL:    cfg.Detail.BaseURL,
			Keys:       cfg.Detail.Keys,
			KeyName:    cfg.Detail.KeyName,
			Carry:      cfg.Detail.Carry,
			Spec:       spec,
		}
	}

	return t, nil
}
