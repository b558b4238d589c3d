package domain

import "time"

// Sensor CSV columns, in file order.
const (
	ColumnTimestamp = "timestamp"
	ColumnFlowRate  = "flow_rate"
	ColumnPressure  = "pressure"
	ColumnLeak      = "leak"
)

// ObservationColumns is the header of a sensor data file.
var ObservationColumns = []string{ColumnTimestamp, ColumnFlowRate, ColumnPressure, ColumnLeak}

// TimestampLayout matches the naive datetime format pandas writes to CSV.
// Parsing with it also accepts timestamps without fractional seconds.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// SensorObservation is one simulated minute of flow and pressure readings.
type SensorObservation struct {
	Timestamp time.Time `json:"timestamp"`
	FlowRate  float64   `json:"flow_rate"`
	Pressure  float64   `json:"pressure"`
	Leak      int       `json:"leak"` // 0 or 1
}

// NormalizationStats holds the dataset-wide statistics used for z-scores.
type NormalizationStats struct {
	Rows         int     `json:"rows"`
	FlowMean     float64 `json:"flow_mean"`
	FlowStd      float64 `json:"flow_std"`
	PressureMean float64 `json:"pressure_mean"`
	PressureStd  float64 `json:"pressure_std"`
}
