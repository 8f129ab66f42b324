package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

// loadStops reads the static stop catalog from a CSV file with stop_name,
// stop_lat and stop_lon columns. The catalog is loaded once at startup and
// immutable thereafter. Rows with unparsable coordinates are skipped.
func loadStops(path string) ([]Stop, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stops file: %w", err)
	}
	defer f.Close()
	return parseStops(f)
}

func parseStops(r io.Reader) ([]Stop, error) {
	csvr := csv.NewReader(r)
	rec, err := csvr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse stops csv: %w", err)
	}
	if len(rec) == 0 {
		return []Stop{}, nil
	}
	head := rec[0]
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	nameIdx := idx("stop_name")
	latIdx := idx("stop_lat")
	lonIdx := idx("stop_lon")
	if latIdx < 0 || lonIdx < 0 {
		return nil, fmt.Errorf("stops csv missing stop_lat/stop_lon columns")
	}

	stops := make([]Stop, 0, len(rec)-1)
	for _, row := range rec[1:] {
		lat, err1 := strconv.ParseFloat(row[latIdx], 64)
		lon, err2 := strconv.ParseFloat(row[lonIdx], 64)
		if err1 != nil || err2 != nil {
			log.Printf("skipping stop row with bad coordinates: %v", row)
			continue
		}
		name := "Unknown Stop"
		if nameIdx >= 0 && nameIdx < len(row) && row[nameIdx] != "" {
			name = row[nameIdx]
		}
		stops = append(stops, Stop{Name: name, Latitude: lat, Longitude: lon})
	}
	return stops, nil
}
