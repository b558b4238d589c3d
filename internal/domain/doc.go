// Package domain models water-network sensor data and the leak/demand
// prediction contract.
//
// # Sensor Data
//
// A sensor observation is one reading per simulated minute:
//
//	timestamp, flow_rate, pressure, leak
//	2024-04-26 15:10:00.000000, 81.4, 59.2, 0
//
// Flow rate and pressure are raw readings. The leak column is a 0/1 label
// marking minutes with an injected leak event.
//
// # Feature Schema
//
// Every model consumes the same ordered feature row:
//
//	[flow_rate_norm, pressure_norm, hour]
//
// flow_rate_norm and pressure_norm are z-scores computed over a whole
// dataset (sample standard deviation), and hour is the hour-of-day of the
// observation timestamp. The order is defined once by [FeatureSchema]. Model
// artifacts record the feature names they were fit with, and the order is
// checked with [Schema.Validate] when an artifact is loaded and when a
// feature table is written.
//
// # Prediction Contract
//
// A prediction request is a JSON object holding every schema key. The
// response carries the positive-class probability from the leak classifier
// and the scalar output of the demand regressor. Validation failures report
// the required keys; any other failure is reported with the raw error text.
package domain
