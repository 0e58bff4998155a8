package trace

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes samples as "t,value" rows with a header.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"t", "value"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, s := range samples {
		row := []string{
			strconv.FormatFloat(float64(s.T), 'g', -1, 32),
			strconv.FormatFloat(float64(s.V), 'g', -1, 32),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes samples as a JSON array.
func WriteJSON(w io.Writer, samples []Sample) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(samples); err != nil {
		return fmt.Errorf("failed to encode samples: %w", err)
	}
	return nil
}

// Write dispatches on format ("csv" or "json").
func Write(w io.Writer, format string, samples []Sample) error {
	switch format {
	case "csv":
		return WriteCSV(w, samples)
	case "json":
		return WriteJSON(w, samples)
	default:
		return fmt.Errorf("unsupported format %q: must be csv or json", format)
	}
}
