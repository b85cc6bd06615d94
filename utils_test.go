package ranchapi_test

import (
	"testing"
	"time"

	"github.com/herdwatch/ranchapi"

	assert "github.com/go-playground/assert/v2"
)

func TestAgeInMonths(t *testing.T) {
	birth := time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, ranchapi.AgeInMonths(birth, birth))
	assert.Equal(t, 0, ranchapi.AgeInMonths(birth, time.Date(2022, 4, 14, 0, 0, 0, 0, time.UTC))) // one day short
	assert.Equal(t, 1, ranchapi.AgeInMonths(birth, time.Date(2022, 4, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24, ranchapi.AgeInMonths(birth, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 23, ranchapi.AgeInMonths(birth, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, ranchapi.AgeInMonths(birth, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))) // not born yet
}

func TestIsValidCoordinate(t *testing.T) {
	assert.Equal(t, true, ranchapi.IsValidCoordinate(19.4326, -99.1332))
	assert.Equal(t, true, ranchapi.IsValidCoordinate(-90, 180))
	assert.Equal(t, false, ranchapi.IsValidCoordinate(90.1, 0))
	assert.Equal(t, false, ranchapi.IsValidCoordinate(0, -180.5))
}
