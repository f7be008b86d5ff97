// Package dataset loads and writes LabeledDatasets. CSV files and SQLite
// databases are supported; the format is picked from the file extension.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"drone-activity-classifier/db"
	"drone-activity-classifier/drone"
)

// ErrMissingColumn is returned when a CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Columns lists the required CSV columns in write order.
var Columns = []string{"lat", "lon", "altitude", "speed", "distance_to_restricted", "label"}

// Load reads a labeled dataset from a .csv file or a .db/.sqlite/.sqlite3 database.
func Load(path string) ([]drone.LabeledSample, error) {
	if isSQLite(path) {
		return LoadSQLite(path)
	}
	return LoadCSV(path)
}

// Save writes samples to path in the format implied by its extension,
// replacing any rows already there.
func Save(path string, samples []drone.LabeledSample) error {
	if isSQLite(path) {
		client, err := db.NewSQLiteClient(path)
		if err != nil {
			return err
		}
		defer client.Close()
		return client.ReplaceLabeledSamples(samples)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, samples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadSQLite reads every row of the telemetry table.
func LoadSQLite(path string) ([]drone.LabeledSample, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	client, err := db.NewSQLiteClient(path)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return client.GetLabeledSamples()
}

// LoadCSV reads a CSV file with a header row.
func LoadCSV(path string) ([]drone.LabeledSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses labeled telemetry. Columns are located by header name,
// so their order is free and additional columns are ignored.
func ReadCSV(r io.Reader) ([]drone.LabeledSample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cols := make([]int, len(Columns))
	for i, name := range Columns {
		idx, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		cols[i] = idx
	}

	var samples []drone.LabeledSample
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var values [5]float64
		for i := range values {
			if cols[i] >= len(record) {
				return nil, fmt.Errorf("line %d: missing %s", line, Columns[i])
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[cols[i]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %s: %w", line, Columns[i], err)
			}
			values[i] = v
		}
		if cols[5] >= len(record) || strings.TrimSpace(record[cols[5]]) == "" {
			return nil, fmt.Errorf("line %d: missing label", line)
		}

		samples = append(samples, drone.LabeledSample{
			Sample: drone.TelemetrySample{
				Latitude:             values[0],
				Longitude:            values[1],
				Altitude:             values[2],
				Speed:                values[3],
				DistanceToRestricted: values[4],
			},
			Label: strings.TrimSpace(record[cols[5]]),
		})
	}

	return samples, nil
}

// WriteCSV writes samples with a header row.
func WriteCSV(w io.Writer, samples []drone.LabeledSample) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, s := range samples {
		record := []string{
			formatFloat(s.Sample.Latitude),
			formatFloat(s.Sample.Longitude),
			formatFloat(s.Sample.Altitude),
			formatFloat(s.Sample.Speed),
			formatFloat(s.Sample.DistanceToRestricted),
			s.Label,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func isSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}
