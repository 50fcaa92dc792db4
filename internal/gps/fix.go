package gps

import "time"

// Fix is a position report as returned by the modem's $GN command.
type Fix struct {
	Latitude  float64 `json:"lat"`        // decimal degrees
	Longitude float64 `json:"lon"`        // decimal degrees
	AltitudeM float64 `json:"altitude_m"` // metres
	CourseDeg float64 `json:"course_deg"` // course over ground
	SpeedKph  float64 `json:"speed_kph"`  // speed over ground
}

// DateTime is a clock report as returned by the modem's $DT command.
type DateTime struct {
	Time  time.Time `json:"time"`  // UTC
	Valid bool      `json:"valid"` // "V" from the modem
}
