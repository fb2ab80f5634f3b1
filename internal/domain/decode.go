package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMalformedLine is returned for lines that do not carry all nine fields.
	ErrMalformedLine = errors.New("malformed line")

	// ErrNumericParse is matched by every *FieldError.
	ErrNumericParse = errors.New("numeric parse error")
)

// FieldError describes a field that could not be parsed as its expected type.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

func (e *FieldError) Is(target error) bool { return target == ErrNumericParse }

// DecodeLine parses one raw TDV line into an Observation. The trailing newline
// is optional. Fields past the ninth are ignored.
func DecodeLine(line string) (Observation, error) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	fields := strings.Split(line, "\t")
	if len(fields) < FieldCount {
		return Observation{}, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedLine, len(fields), FieldCount)
	}

	state := fields[0]
	if state == "" {
		return Observation{}, fmt.Errorf("%w: empty state code", ErrMalformedLine)
	}

	millis, err := parseInt("timestamp", fields[1])
	if err != nil {
		return Observation{}, err
	}
	// fields[2] is the geohash.
	humidity, err := parseFloat("humidity", fields[3])
	if err != nil {
		return Observation{}, err
	}
	snow, err := parseFlag("snow", fields[4])
	if err != nil {
		return Observation{}, err
	}
	cloud, err := parseFloat("cloud cover", fields[5])
	if err != nil {
		return Observation{}, err
	}
	lightning, err := parseFlag("lightning", fields[6])
	if err != nil {
		return Observation{}, err
	}
	pressure, err := parseFloat("pressure", fields[7])
	if err != nil {
		return Observation{}, err
	}
	kelvin, err := parseFloat("temperature", fields[8])
	if err != nil {
		return Observation{}, err
	}

	return Observation{
		State:       state,
		Timestamp:   millis / 1000,
		Humidity:    humidity,
		Snow:        snow,
		CloudCover:  cloud,
		Lightning:   lightning,
		Pressure:    pressure,
		Temperature: KelvinToFahrenheit(kelvin),
	}, nil
}

func parseInt(field, raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &FieldError{Field: field, Value: raw, Err: err}
	}
	return v, nil
}

func parseFloat(field, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FieldError{Field: field, Value: raw, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FieldError{Field: field, Value: raw, Err: errors.New("not a finite number")}
	}
	return v, nil
}

// parseFlag accepts "1" as well as the "1.0" form NOAA exports use. Fractional
// values are truncated toward zero.
func parseFlag(field, raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := parseFloat(field, raw)
	if err != nil {
		return 0, err
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, &FieldError{Field: field, Value: raw, Err: strconv.ErrRange}
	}
	return int64(f), nil
}
