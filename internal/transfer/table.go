package transfer

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

type column[T any] struct {
	name string
	get  func(T) string
	set  func(*T, string) error
}

type table[T any] struct {
	entity  string
	columns []column[T]
}

func (t table[T]) header() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

func (t table[T]) record(row T) []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.get(row)
	}
	return out
}

// positions maps each column to its index in header. Column order in the
// file is free, but every column must be present exactly once.
func (t table[T]) positions(header []string) ([]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if i == 0 {
			key = strings.TrimPrefix(key, "\ufeff")
		}
		if _, dup := index[key]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrHeaderMismatch, name)
		}
		index[key] = i
	}

	pos := make([]int, len(t.columns))
	for i, c := range t.columns {
		at, ok := index[strings.ToLower(c.name)]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrHeaderMismatch, c.name)
		}
		pos[i] = at
	}
	return pos, nil
}

// decode turns records (header first) into rows. Rows with the wrong number
// of fields or unparseable values are skipped and counted.
func (t table[T]) decode(records [][]string) (Result[T], error) {
	var res Result[T]
	if len(records) == 0 {
		return res, ErrEmptyImport
	}
	pos, err := t.positions(records[0])
	if err != nil {
		return res, err
	}
	width := len(records[0])

	for n, record := range records[1:] {
		line := n + 2
		if isBlank(record) {
			continue
		}
		if len(record) != width {
			res.skip(t.entity, line, fmt.Errorf("expected %d fields, got %d", width, len(record)))
			continue
		}

		var row T
		var rowErr error
		for i, c := range t.columns {
			if err := c.set(&row, record[pos[i]]); err != nil {
				rowErr = fmt.Errorf("%s: %w", c.name, err)
				break
			}
		}
		if rowErr != nil {
			res.skip(t.entity, line, rowErr)
			continue
		}
		res.Rows = append(res.Rows, row)
	}

	if len(res.Rows) == 0 {
		return res, ErrEmptyImport
	}
	return res, nil
}

func (r *Result[T]) skip(entity string, line int, err error) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf("row %d: %v", line, err))
	log.Warn().Str("entity", entity).Int("row", line).Err(err).Msg("transfer: row skipped")
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
