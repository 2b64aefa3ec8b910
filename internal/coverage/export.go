package coverage

import (
	"encoding/csv"
	"io"
)

// WriteGapCSV writes the gap matrix as CSV. Each bundle is a title row, its
// activity rows, then an empty separator row. Out-of-scope cells are written as N.
func WriteGapCSV(w io.Writer, result *GapResult) error {
	cw := csv.NewWriter(w)
	if result == nil {
		cw.Flush()
		return cw.Error()
	}
	if err := cw.Write(result.Headers); err != nil {
		return err
	}
	occupations := result.Headers[1:]
	blank := make([]string, len(result.Headers))

	for _, bundle := range result.Data {
		title := make([]string, len(result.Headers))
		title[0] = bundle.Name
		if err := cw.Write(title); err != nil {
			return err
		}
		for _, activity := range bundle.CareActivities {
			record := make([]string, 0, len(result.Headers))
			record = append(record, activity.Name)
			for _, occupation := range occupations {
				cell := activity.Cells[occupation]
				if cell == CellOutOfScope {
					cell = LevelNone.String()
				}
				record = append(record, cell)
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		if err := cw.Write(blank); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
