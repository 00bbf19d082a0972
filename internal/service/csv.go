package service

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// csvTable reads a header-driven CSV file. Column names match case-insensitively.
type csvTable struct {
	r    *csv.Reader
	cols map[string]int
}

func newCSVTable(r io.Reader, required ...string) (*csvTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, invalid("csv header: %v", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, c := range required {
		if _, ok := cols[strings.ToLower(c)]; !ok {
			return nil, invalid("csv header is missing column %q", c)
		}
	}
	return &csvTable{r: cr, cols: cols}, nil
}

// next returns the next record; malformed lines are reported through skipped.
func (t *csvTable) next() (rec []string, skipped bool, err error) {
	rec, err = t.r.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, true, nil
		}
		return nil, false, err
	}
	return rec, false, nil
}

func (t *csvTable) get(rec []string, col string) string {
	i, ok := t.cols[strings.ToLower(col)]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
