package reports

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV streams a summary as CSV with a trailing totals row.
func WriteCSV(w io.Writer, s *Summary) error {
	cw := csv.NewWriter(w)
	header := []string{"user_id", "user_name", "department", "regular_hours", "overtime_hours", "pto_hours", "total_hours"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range s.Rows {
		record := []string{
			fmt.Sprintf("%d", row.UserID),
			row.UserName,
			row.Department,
			formatHours(row.RegularHours),
			formatHours(row.OvertimeHours),
			formatHours(row.PTOHours),
			formatHours(row.TotalHours),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	total := []string{
		"", "TOTAL", "",
		formatHours(s.Total.RegularHours),
		formatHours(s.Total.OvertimeHours),
		formatHours(s.Total.PTOHours),
		formatHours(s.Total.TotalHours),
	}
	if err := cw.Write(total); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.2f", h)
}
