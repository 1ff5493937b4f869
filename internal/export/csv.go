package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/hoornstra/missmeester/internal/models"
)

// WriteCSV writes one row per tactic in the column order the external
// persistence consumers expect: id, White, Black, Event, Date, ply, delta.
func WriteCSV(w io.Writer, tactics []models.Tactic) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"id", "White", "Black", "Event", "Date", "ply", "delta"}); err != nil {
		return err
	}
	for _, t := range tactics {
		row := []string{
			t.ID,
			t.White,
			t.Black,
			t.Event,
			t.Date,
			strconv.Itoa(t.Ply),
			strconv.FormatFloat(t.Delta, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
