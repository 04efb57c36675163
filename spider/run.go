package spider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dreamerjackson/statscraper/collect"
	"github.com/dreamerjackson/statscraper/limiter"
	"github.com/dreamerjackson/statscraper/table"
	"go.uber.org/zap"
)

func (t *Task) Check() error {
	if t.Name == "" {
		return errors.New("task name can not be empty")
	}

	if t.URL == "" {
		return fmt.Errorf("task %s: url can not be empty", t.Name)
	}

	if err := t.Listing.Validate(); err != nil {
		return fmt.Errorf("task %s: listing: %w", t.Name, err)
	}

	if d := t.Detail; d != nil {
		if d.LinkColumn == "" {
			return fmt.Errorf("task %s: detail link column can not be empty", t.Name)
		}

		if err := d.Spec.Validate(); err != nil {
			return fmt.Errorf("task %s: detail: %w", t.Name, err)
		}

		if len(d.Keys) > 0 && d.KeyName == "" {
			return fmt.Errorf("task %s: detail key name can not be empty", t.Name)
		}

		listing := make(map[string]struct{})
		for _, k := range t.Listing.Header() {
			listing[k] = struct{}{}
		}

		used := append([]string{d.LinkColumn}, d.Keys...)
		for _, k := range append(used, d.Carry...) {
			if _, ok := listing[k]; !ok {
				return fmt.Errorf("task %s: detail refers to unknown listing column %q", t.Name, k)
			}
		}

		seen := make(map[string]struct{})
		for _, k := range d.Header() {
			if _, ok := seen[k]; ok {
				return fmt.Errorf("task %s: duplicate output column %q", t.Name, k)
			}
			seen[k] = struct{}{}
		}
	}

	return nil
}

// Run extracts the task's result set and saves it once.
func (t *Task) Run(ctx context.Context) error {
	result, err := t.Extract(ctx)
	if err != nil {
		return err
	}

	if t.Storage == nil {
		return fmt.Errorf("task %s: no storage", t.Name)
	}

	if err := t.Storage.Save(t.Name, result); err != nil {
		return fmt.Errorf("task %s: save failed: %w", t.Name, err)
	}

	t.logger.Info("task finished", zap.String("task", t.Name), zap.Int("rows", result.Len()))

	return nil
}

// Extract fetches the listing page and, for two-stage tasks, every detail
// page in listing order, one page at a time.
func (t *Task) Extract(ctx context.Context) (*table.Table, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}

	if t.Fetcher == nil {
		t.Fetcher = collect.BrowserFetch{Logger: t.logger}
	}

	if t.Limit == nil {
		t.Limit = limiter.Fixed(t.WaitTime)
	}

	listing, err := t.fetchTable(ctx, t.URL, t.Listing)
	if err != nil {
		return nil, fmt.Errorf("task %s: listing: %w", t.Name, err)
	}

	t.logger.Info("listing extracted",
		zap.String("task", t.Name),
		zap.String("url", t.URL),
		zap.Int("rows", listing.Len()),
	)

	if t.Detail == nil {
		return listing, nil
	}

	out := table.New(t.Detail.Header())
	for i, row := range listing.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := t.collectDetail(ctx, row, out); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			t.logger.Warn("detail extraction failed",
				zap.String("task", t.Name),
				zap.Int("row", i),
				zap.Error(err),
			)
			out.AppendSentinel()
		}
	}

	return out, nil
}

func (t *Task) fetchTable(ctx context.Context, pageURL string, spec table.Spec) (*table.Table, error) {
	if err := t.Limit.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := t.Fetcher.Get(ctx, &collect.Request{URL: pageURL, Selector: spec.Selector})
	if err != nil {
		return nil, err
	}

	doc, err := table.ParseHTML(body, spec.Uncomment)
	if err != nil {
		return nil, err
	}

	return table.Extract(doc, spec, table.WithLogger(t.logger))
}

// collectDetail appends the rows of one listing row's detail page to out.
// Any error leaves out untouched; the caller records the sentinel row.
func (t *Task) collectDetail(ctx context.Context, row table.Row, out *table.Table) error {
	d := t.Detail

	if row.IsSentinel() {
		return errors.New("listing row has no data")
	}

	link, _ := row.Get(d.LinkColumn)
	pageURL, err := t.resolve(link)
	if err != nil {
		return err
	}

	var carry []string
	for _, c := range d.Carry {
		v, _ := row.Get(c)
		carry = append(carry, v)
	}

	keys := []string{""}
	if len(d.Keys) > 0 {
		keys = keys[:0]
		for _, k := range d.Keys {
			v, _ := row.Get(k)
			keys = append(keys, v)
		}
	}

	if err := t.Limit.Wait(ctx); err != nil {
		return err
	}

	body, err := t.Fetcher.Get(ctx, &collect.Request{
		URL:      pageURL,
		Selector: keySelector(d.Spec.Selector, keys[0]),
	})
	if err != nil {
		return fmt.Errorf("fetch %s failed: %w", pageURL, err)
	}

	doc, err := table.ParseHTML(body, d.Spec.Uncomment)
	if err != nil {
		return err
	}

	part := table.New(out.Header)
	for _, key := range keys {
		spec := d.Spec
		spec.Selector = keySelector(d.Spec.Selector, key)

		sub, err := table.Extract(doc, spec, table.WithLogger(t.logger))
		if err != nil {
			t.logger.Warn("detail table missing",
				zap.String("task", t.Name),
				zap.String("url", pageURL),
				zap.String("selector", spec.Selector),
				zap.Error(err),
			)
			part.AppendSentinel()
			continue
		}

		for _, r := range sub.Rows {
			if r.IsSentinel() {
				part.AppendSentinel()
				continue
			}

			values := append([]string{}, carry...)
			if len(d.Keys) > 0 {
				values = append(values, key)
			}
			values = append(values, r.Values()...)

			if err := part.Append(values...); err != nil {
				return err
			}
		}
	}

	out.Rows = append(out.Rows, part.Rows...)

	t.logger.Debug("detail page extracted", zap.String("task", t.Name), zap.String("url", pageURL))

	return nil
}

func (t *Task) resolve(link string) (string, error) {
	if link == "" || link == table.Sentinel {
		return "", errors.New("detail link missing")
	}

	base := t.Detail.BaseURL
	if base == "" {
		base = t.URL
	}

	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q failed: %w", base, err)
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse detail link %q failed: %w", link, err)
	}

	return b.ResolveReference(u).String(), nil
}

func keySelector(selector, key string) string {
	return strings.ReplaceAll(selector, "{key}", key)
}
