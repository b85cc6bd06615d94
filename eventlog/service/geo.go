package service

import (
	"math"

	"github.com/herdwatch/ranchapi/eventlog/model"
)

const earthRadiusKm = 6371.0

// HaversineDistance returns the great-circle distance in km, or NaN when a point is missing.
func HaversineDistance(from, to *model.Location) float64 {
	if from == nil || to == nil {
		return math.NaN()
	}
	fromLatitude := toRadians(from.Latitude)
	toLatitude := toRadians(to.Latitude)
	deltaLatitude := toRadians(to.Latitude - from.Latitude)
	deltaLongitude := toRadians(to.Longitude - from.Longitude)

	a := math.Sin(deltaLatitude/2)*math.Sin(deltaLatitude/2) +
		math.Cos(fromLatitude)*math.Cos(toLatitude)*math.Sin(deltaLongitude/2)*math.Sin(deltaLongitude/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
