package table

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// UnknownCountry is the country recorded for a player field without a "(XXX)" prefix.
const UnknownCountry = "Unknown"

// Spec describes where a table lives in a document and how its rows map to columns.
type Spec struct {
	Selector  string // css selector of the table, or of an element wrapping it
	SkipRows  int    // leading header rows
	SkipClass string // class of repeated header rows inside the body
	Uncomment bool   // table is shipped inside an html comment
	Columns   []Column
}

// Column selects one cell of a row.
// The cell is found by its data-stat attribute when Stat is set, by position otherwise.
type Column struct {
	Key         string
	Index       int
	Stat        string
	Href        bool           // use the link target of the cell instead of its text
	HrefPattern *regexp.Regexp // first submatch of the link target is the value
	Optional    bool           // a missing cell only blanks this field
	Split       *Split
	Script      string // js expression over `value`
}

// Keys returns the output keys produced by the column.
func (c Column) Keys() []string {
	if c.Split == nil {
		return []string{c.Key}
	}

	keys := make([]string, 0, len(c.Split.Fields))
	for _, f := range c.Split.Fields {
		keys = append(keys, f.Key)
	}

	return keys
}

// Header is the ordered key set shared by every row extracted with the spec.
func (s Spec) Header() []string {
	var header []string
	for _, c := range s.Columns {
		header = append(header, c.Keys()...)
	}

	return header
}

func (s Spec) Validate() error {
	if strings.TrimSpace(s.Selector) == "" {
		return errors.New("table selector can not be empty")
	}

	if len(s.Columns) == 0 {
		return errors.New("column can not be empty")
	}

	if s.SkipRows < 0 {
		return fmt.Errorf("negative skip rows: %d", s.SkipRows)
	}

	seen := make(map[string]struct{})
	for i, c := range s.Columns {
		if c.Split == nil && c.Key == "" {
			return fmt.Errorf("column %d has no key", i)
		}

		if c.Stat == "" && c.Index < 0 {
			return fmt.Errorf("column %q: negative index %d", c.Key, c.Index)
		}

		if c.HrefPattern != nil && c.HrefPattern.NumSubexp() < 1 {
			return fmt.Errorf("column %q: href pattern %q has no submatch", c.Key, c.HrefPattern)
		}

		if c.Split != nil {
			if err := c.Split.Validate(); err != nil {
				return fmt.Errorf("column %q: %w", c.Key, err)
			}
		}

		for _, k := range c.Keys() {
			if _, ok := seen[k]; ok {
				return fmt.Errorf("duplicate column key %q", k)
			}
			seen[k] = struct{}{}
		}
	}

	return nil
}

// SplitField is one output field of a Split.
type SplitField struct {
	Key     string
	Group   string // named submatch of Split.Pattern
	Default string // value when the pattern does not match
}

// Split breaks one cell into several fields with a regular expression.
// When the pattern does not match, the whole cell goes to Passthrough and
// every other field gets its Default.
type Split struct {
	Pattern     *regexp.Regexp
	Fields      []SplitField
	Passthrough string
}

var countryRe = regexp.MustCompile(`^\(\s*(?P<country>[A-Za-z]{2,4})\s*\)\s*(?P<name>.*)$`)

// CountrySplit splits "(CAN) John Smith" into name and country.
func CountrySplit(nameKey, countryKey string) *Split {
	return &Split{
		Pattern: countryRe,
		Fields: []SplitField{
			{Key: nameKey, Group: "name"},
			{Key: countryKey, Group: "country", Default: UnknownCountry},
		},
		Passthrough: nameKey,
	}
}

func (s *Split) Validate() error {
	if s.Pattern == nil {
		return errors.New("split pattern can not be empty")
	}

	if len(s.Fields) == 0 {
		return errors.New("split fields can not be empty")
	}

	groups := make(map[string]struct{})
	for _, name := range s.Pattern.SubexpNames() {
		if name != "" {
			groups[name] = struct{}{}
		}
	}

	passthrough := false
	for _, f := range s.Fields {
		if f.Key == "" {
			return errors.New("split field has no key")
		}
		if _, ok := groups[f.Group]; !ok {
			return fmt.Errorf("split pattern has no group %q", f.Group)
		}
		if f.Key == s.Passthrough {
			passthrough = true
		}
	}

	if !passthrough {
		return fmt.Errorf("passthrough key %q is not a split field", s.Passthrough)
	}

	return nil
}

// Apply returns one value per field, in field order.
func (s *Split) Apply(field string) []string {
	out := make([]string, len(s.Fields))

	m := s.Pattern.FindStringSubmatch(field)
	if m == nil {
		for i, f := range s.Fields {
			if f.Key == s.Passthrough {
				out[i] = field
			} else {
				out[i] = f.Default
			}
		}
		return out
	}

	for i, f := range s.Fields {
		out[i] = strings.TrimSpace(m[s.Pattern.SubexpIndex(f.Group)])
	}

	return out
}
