package domain

// FieldCount is the number of tab-separated fields in a well-formed line.
const FieldCount = 9

// Observation is a single decoded line of climate data.
type Observation struct {
	State       string
	Timestamp   int64 // seconds since the UNIX epoch
	Humidity    float64
	Snow        int64
	CloudCover  float64
	Lightning   int64
	Pressure    float64
	Temperature float64 // Fahrenheit
}

// KelvinToFahrenheit converts a surface temperature reading.
func KelvinToFahrenheit(k float64) float64 {
	return k*1.8 - 459.67
}
