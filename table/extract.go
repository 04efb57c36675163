package table

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NotFoundError is returned when the table selector matches nothing.
// Callers usually record a sentinel row and move on.
type NotFoundError struct {
	Selector string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("table %q not found", e.Selector)
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

var errCellMissing = errors.New("cell missing")

type options struct {
	logger *zap.Logger
}

var defaultOptions = options{
	logger: zap.NewNop(),
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// ParseHTML builds a document from a page body.
// Sports-reference style pages ship secondary tables inside html comments;
// with uncomment set, every comment holding a <table is parsed in place.
// Other comments stay comments.
func ParseHTML(body []byte, uncomment bool) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html failed: %w", err)
	}

	if uncomment {
		for _, n := range commentedTables(doc.Nodes[0]) {
			if err := expandComment(n); err != nil {
				return nil, fmt.Errorf("parse commented table failed: %w", err)
			}
		}
	}

	return doc, nil
}

func commentedTables(n *html.Node) []*html.Node {
	var out []*html.Node
	if n.Type == html.CommentNode && strings.Contains(n.Data, "<table") {
		out = append(out, n)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, commentedTables(c)...)
	}

	return out
}

// expandComment replaces a comment node by the markup it holds.
func expandComment(n *html.Node) error {
	parent := n.Parent
	if parent == nil {
		return nil
	}

	ctxNode := parent
	if parent.Type != html.ElementNode {
		ctxNode = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}

	nodes, err := html.ParseFragment(strings.NewReader(n.Data), ctxNode)
	if err != nil {
		return err
	}

	for _, c := range nodes {
		parent.InsertBefore(c, n)
	}
	parent.RemoveChild(n)

	return nil
}

// Extract reads the table described by spec from doc.
//
// A row with a missing required cell is replaced by a sentinel row of the
// same width, extraction then carries on with the next row.
func Extract(doc *goquery.Document, spec Spec, opts ...Option) (*Table, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	sel := locate(doc.Selection, spec.Selector)
	if sel == nil {
		return nil, &NotFoundError{Selector: spec.Selector}
	}

	t := New(spec.Header())
	vm := newScripter()

	rows := sel.Children().ChildrenFiltered("tr")
	if spec.SkipRows > 0 {
		rows = rows.Slice(min(spec.SkipRows, rows.Length()), rows.Length())
	}

	rows.Each(func(i int, tr *goquery.Selection) {
		if spec.SkipClass != "" && tr.HasClass(spec.SkipClass) {
			return
		}

		values, err := extractRow(tr, spec.Columns, vm)
		if err != nil {
			options.logger.Warn("row extraction failed",
				zap.String("table", spec.Selector),
				zap.Int("row", i+spec.SkipRows),
				zap.Error(err),
			)
			t.AppendSentinel()
			return
		}

		if err := t.Append(values...); err != nil {
			options.logger.Error("append row failed", zap.Error(err))
			t.AppendSentinel()
		}
	})

	options.logger.Debug("table extracted",
		zap.String("table", spec.Selector),
		zap.Int("rows", t.Len()),
	)

	return t, nil
}

// locate returns the first table matched by selector, looking inside
// the matched element when it is a wrapper.
func locate(root *goquery.Selection, selector string) *goquery.Selection {
	sel := root.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}

	if goquery.NodeName(sel) != "table" {
		sel = sel.Find("table").First()
		if sel.Length() == 0 {
			return nil
		}
	}

	return sel
}

func extractRow(tr *goquery.Selection, columns []Column, vm *scripter) ([]string, error) {
	cells := tr.ChildrenFiltered("th, td")

	var values []string
	for _, c := range columns {
		v, err := cellValue(cells, c, vm)
		if err != nil {
			if !c.Optional {
				return nil, fmt.Errorf("column %q: %w", c.Key, err)
			}
			for range c.Keys() {
				values = append(values, Sentinel)
			}
			continue
		}

		if c.Split != nil {
			values = append(values, c.Split.Apply(v)...)
			continue
		}

		values = append(values, v)
	}

	return values, nil
}

func cellValue(cells *goquery.Selection, c Column, vm *scripter) (string, error) {
	var cell *goquery.Selection
	if c.Stat != "" {
		cell = cells.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.AttrOr("data-stat", "") == c.Stat
		}).First()
	} else {
		cell = cells.Eq(c.Index)
	}

	if cell.Length() == 0 {
		return "", errCellMissing
	}

	var v string
	if c.Href || c.HrefPattern != nil {
		href, ok := cellHref(cell)
		if !ok {
			return "", errors.New("link missing")
		}

		v = href
		if c.HrefPattern != nil {
			m := c.HrefPattern.FindStringSubmatch(href)
			if m == nil {
				return "", fmt.Errorf("link %q does not match %q", href, c.HrefPattern)
			}
			v = m[1]
		}
	} else {
		v = strings.TrimSpace(cell.Text())
	}

	if c.Script != "" {
		out, err := vm.run(c.Script, v)
		if err != nil {
			return "", err
		}
		v = strings.TrimSpace(out)
	}

	return v, nil
}

func cellHref(cell *goquery.Selection) (string, bool) {
	if goquery.NodeName(cell) == "a" {
		href, ok := cell.Attr("href")
		return strings.TrimSpace(href), ok
	}

	href, ok := cell.Find("a[href]").First().Attr("href")

	return strings.TrimSpace(href), ok
}
