package model

import (
	"errors"
	"strconv"
	"time"
)

// RetrievalStatus is the per-attribute validity marker reported by the
// telemetry service.
type RetrievalStatus string

const (
	StatusValid       RetrievalStatus = "VALID"
	StatusNotReceived RetrievalStatus = "NOT_RECEIVED"
	StatusError       RetrievalStatus = "ERROR"
)

// DataType represents the wire type of a delta value.
type DataType int

const (
	DataTypeBinary DataType = iota + 1
	DataTypeBoolean
	DataTypeDouble
	DataTypeInteger
	DataTypeString
)

// Delta is a single attribute update carried by a push frame.
type Delta struct {
	Feature   string          `json:"feature"`
	Object    string          `json:"object"`
	Attribute string          `json:"attribute"`
	DataType  DataType        `json:"dataType"`
	Status    RetrievalStatus `json:"status"`
	Value     string          `json:"value"`
}

// IntValue returns an integer representation of the delta value.
func (d Delta) IntValue() (int, error) {
	if d.DataType != DataTypeInteger {
		return 0, errors.New("delta data type is not int")
	}

	return strconv.Atoi(d.Value)
}

// Float64Value returns a float64 representation of the delta value.
func (d Delta) Float64Value() (float64, error) {
	if d.DataType != DataTypeDouble {
		return 0, errors.New("delta data type is not float64")
	}

	return strconv.ParseFloat(d.Value, 64)
}

// BoolValue returns a bool representation of the delta value.
func (d Delta) BoolValue() (bool, error) {
	if d.DataType != DataTypeBoolean {
		return false, errors.New("delta data type is not bool")
	}

	return strconv.ParseBool(d.Value)
}

// TypedValue decodes the raw value according to the declared data type.
// Unknown data types pass through as raw strings so server-side schema
// growth does not break ingestion.
func (d Delta) TypedValue() any {
	switch d.DataType {
	case DataTypeBoolean:
		if v, err := d.BoolValue(); err == nil {
			return v
		}
	case DataTypeDouble:
		if v, err := d.Float64Value(); err == nil {
			return v
		}
	case DataTypeInteger:
		if v, err := d.IntValue(); err == nil {
			return v
		}
	case DataTypeBinary, DataTypeString:
	}

	return d.Value
}

// Frame is one incremental telemetry message received on the push channel.
// All deltas of a frame share the frame timestamp.
type Frame struct {
	VehicleID string    `json:"vehicleId"`
	Timestamp time.Time `json:"timestamp"`
	Deltas    []Delta   `json:"deltas"`
}
