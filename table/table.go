package table

import "fmt"

// Sentinel is stored in every field that could not be extracted.
const Sentinel = "N/A"

// Row is an ordered mapping from column label to cell value.
// Rows built for the same table share the header slice.
type Row struct {
	keys   []string
	values []string
}

func NewRow(header []string, values []string) (Row, error) {
	if len(header) != len(values) {
		return Row{}, fmt.Errorf("row width %d does not match header width %d", len(values), len(header))
	}

	v := make([]string, len(values))
	copy(v, values)

	return Row{keys: header, values: v}, nil
}

// SentinelRow returns a row holding Sentinel in every column of header.
func SentinelRow(header []string) Row {
	values := make([]string, len(header))
	for i := range values {
		values[i] = Sentinel
	}

	return Row{keys: header, values: values}
}

func (r Row) Keys() []string {
	return r.keys
}

func (r Row) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

func (r Row) Len() int {
	return len(r.values)
}

// Get returns the value stored under key.
func (r Row) Get(key string) (string, bool) {
	for i, k := range r.keys {
		if k == key {
			return r.values[i], true
		}
	}

	return "", false
}

// IsSentinel reports whether every field of the row is Sentinel.
func (r Row) IsSentinel() bool {
	if len(r.values) == 0 {
		return false
	}

	for _, v := range r.values {
		if v != Sentinel {
			return false
		}
	}

	return true
}

func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.keys))
	for i, k := range r.keys {
		m[k] = r.values[i]
	}

	return m
}

// Table is a header plus rows in source document order.
type Table struct {
	Header []string
	Rows   []Row
}

func New(header []string) *Table {
	h := make([]string, len(header))
	copy(h, header)

	return &Table{Header: h}
}

// Append adds a row built from values; len(values) must equal the header width.
func (t *Table) Append(values ...string) error {
	row, err := NewRow(t.Header, values)
	if err != nil {
		return err
	}

	t.Rows = append(t.Rows, row)

	return nil
}

func (t *Table) AppendSentinel() {
	t.Rows = append(t.Rows, SentinelRow(t.Header))
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Records returns the rows as plain string slices, header excluded.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r.Values())
	}

	return out
}
