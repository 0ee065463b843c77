package audit

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteTimelineCSV serialises timeline rows to CSV.
func WriteTimelineCSV(w io.Writer, rows []TimelineRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"At", "Actor ID", "Actor", "Action", "Entity Type", "Entity ID", "Details"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.At.Format(time.RFC3339),
			strconv.FormatInt(row.ActorID, 10),
			row.ActorName,
			row.Action,
			row.EntityType,
			row.EntityID,
			row.Details,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
