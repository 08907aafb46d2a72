package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

func writeCSV[T any](w io.Writer, t table[T], rows []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.header()); err != nil {
		return fmt.Errorf("write %s header: %w", t.entity, err)
	}
	for _, row := range rows {
		if err := cw.Write(t.record(row)); err != nil {
			return fmt.Errorf("write %s row: %w", t.entity, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// readCSV returns every record it can read along with a message for each
// record the parser rejected. A rejected record keeps its slot as an empty
// record so later rows keep their numbers. Field counts are not enforced
// here. Quoted fields may span lines, and a \r\n inside quotes comes back
// as \n.
func readCSV(r io.Reader) ([][]string, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		records [][]string
		dropped []string
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Warn().Err(err).Int("line", parseErr.StartLine).Msg("transfer: unreadable csv line skipped")
				dropped = append(dropped, fmt.Sprintf("row %d: %v", len(records)+1, parseErr.Err))
				records = append(records, nil)
				continue
			}
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, record)
	}
	return records, dropped, nil
}
