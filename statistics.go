package kifu

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Statistics accumulates the results of batches.
type Statistics struct {
	Renders int
	Hits    int // renders served from the cache
	Failed  int
	Skipped int // records skipped across all replays
	Bytes   int

	rows [][]string
}

var statisticsHeader = []string{"job", "plies", "skipped", "bytes", "cached", "error"}

func (s *Statistics) update(results []Result) {
	for _, r := range results {
		s.Renders++
		row := []string{
			strconv.Itoa(len(s.rows)),
			strconv.Itoa(r.Plies),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(len(r.Data)),
			strconv.FormatBool(r.Cached),
			"",
		}
		switch {
		case r.Err != nil:
			s.Failed++
			row[5] = r.Err.Error()
		case r.Cached:
			s.Hits++
			row[2] = "" // the replay did not run
		}
		s.Skipped += r.Skipped
		s.Bytes += len(r.Data)
		s.rows = append(s.rows, row)
	}
}

// Dump writes one CSV row per render.
func (s *Statistics) Dump(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(statisticsHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(s.rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
