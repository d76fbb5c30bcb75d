// Package aqi maps scalar Air-Quality-Index estimates to health-status buckets.
package aqi

// Status is one of the six ordered AQI health categories.
type Status string

const (
	StatusGood               Status = "Good"
	StatusModerate           Status = "Moderate"
	StatusUnhealthySensitive Status = "Unhealthy for Sensitive Groups"
	StatusUnhealthy          Status = "Unhealthy"
	StatusVeryUnhealthy      Status = "Very Unhealthy"
	StatusHazardous          Status = "Hazardous"
)

// Upper thresholds are inclusive: an AQI of exactly 50 is still Good.
const (
	goodMax               = 50
	moderateMax           = 100
	unhealthySensitiveMax = 150
	unhealthyMax          = 200
	veryUnhealthyMax      = 300
)

// Classify converts an AQI estimate to its status bucket. Total over all
// float64 values, including the out-of-range ones a misbehaving model could
// produce; anything above 300 (and NaN) lands in Hazardous.
func Classify(v float64) Status {
	switch {
	case v <= goodMax:
		return StatusGood
	case v <= moderateMax:
		return StatusModerate
	case v <= unhealthySensitiveMax:
		return StatusUnhealthySensitive
	case v <= unhealthyMax:
		return StatusUnhealthy
	case v <= veryUnhealthyMax:
		return StatusVeryUnhealthy
	default:
		return StatusHazardous
	}
}
