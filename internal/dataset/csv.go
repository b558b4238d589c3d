// Package dataset reads and writes the sensor and feature CSV files exchanged
// by the generator and the preprocessor.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/water-leak-service/internal/domain"
)

// LabelColumn is appended after the feature columns of a feature table.
const LabelColumn = "leak"

// WriteObservations writes a header row and one row per observation.
func WriteObservations(w io.Writer, obs []domain.SensorObservation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.ObservationColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range obs {
		o := &obs[i]
		record := []string{
			o.Timestamp.Format(domain.TimestampLayout),
			formatFloat(o.FlowRate),
			formatFloat(o.Pressure),
			strconv.Itoa(o.Leak),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadObservations parses a sensor file. Columns are located by header name,
// so extra columns and any column order are accepted.
func ReadObservations(r io.Reader) ([]domain.SensorObservation, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("empty file: missing header")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}
	for _, col := range domain.ObservationColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	obs := make([]domain.SensorObservation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		o, err := parseObservation(row, colIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func parseObservation(row []string, colIdx map[string]int) (domain.SensorObservation, error) {
	var o domain.SensorObservation
	var err error

	if o.Timestamp, err = ParseTimestamp(get(row, colIdx, domain.ColumnTimestamp)); err != nil {
		return o, err
	}
	if o.FlowRate, err = strconv.ParseFloat(get(row, colIdx, domain.ColumnFlowRate), 64); err != nil {
		return o, fmt.Errorf("parse %s: %w", domain.ColumnFlowRate, err)
	}
	if o.Pressure, err = strconv.ParseFloat(get(row, colIdx, domain.ColumnPressure), 64); err != nil {
		return o, fmt.Errorf("parse %s: %w", domain.ColumnPressure, err)
	}
	leak := get(row, colIdx, domain.ColumnLeak)
	switch leak {
	case "0":
		o.Leak = 0
	case "1":
		o.Leak = 1
	default:
		return o, fmt.Errorf("parse %s: %q is not 0 or 1", domain.ColumnLeak, leak)
	}
	return o, nil
}

// ParseTimestamp accepts pandas-style naive datetimes, with or without
// fractional seconds, and RFC 3339.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: unrecognized format %q", domain.ColumnTimestamp, s)
	}
	return t, nil
}

// WriteFeatures writes a feature table in schema order followed by the label
// column. The schema is checked against domain.FeatureSchema first.
func WriteFeatures(w io.Writer, schema domain.Schema, features []domain.FeatureVector, labels []int) error {
	if err := domain.FeatureSchema.Validate(schema); err != nil {
		return fmt.Errorf("feature table schema: %w", err)
	}
	if len(features) != len(labels) {
		return fmt.Errorf("%d feature rows but %d labels", len(features), len(labels))
	}

	cw := csv.NewWriter(w)
	header := append(schema.Names(), LabelColumn)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(header))
	for i, v := range features {
		row, err := schema.Row(v)
		if err != nil {
			return err
		}
		for j, val := range row {
			record[j] = formatFloat(val)
		}
		record[len(row)] = strconv.Itoa(labels[i])
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
