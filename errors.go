package ranchapi

import (
	"github.com/pkg/errors"
)

const (
	ApiStartMsg           = "API server ranchapi has been started"
	ApiEndedGracefullyMsg = "API server ranchapi ended gracefully"
	ApiFailedToStartMsg   = "Failed to start API server ranchapi"

	msgInvalidEarTag          = "ear tag must not be empty"
	msgInvalidAnimalSex       = "invalid animal sex"
	msgInvalidAnimalStatus    = "invalid animal status"
	msgInvalidWeight          = "weight must not be negative"
	msgInvalidCoordinates     = "latitude must be within [-90, 90] and longitude within [-180, 180]"
	msgInvalidVetActivity     = "invalid veterinary activity"
	msgInvalidMedicineName    = "medicine name and unit must not be empty"
	msgInvalidMedicineStock   = "medicine quantity and minimum stock must not be negative"
	msgInsufficientStock      = "stock adjustment would result in a negative quantity"
	msgZeroStockAdjustment    = "stock adjustment must not be zero"
	msgInvalidSortParameter   = "invalid sort parameter"
	msgPublishMetricsFailed   = "publish metrics snapshot failed"
	msgPublisherNotConfigured = "metrics publisher is not configured"
)

var (
	ErrInvalidEarTag          = errors.New(msgInvalidEarTag)
	ErrInvalidAnimalSex       = errors.New(msgInvalidAnimalSex)
	ErrInvalidAnimalStatus    = errors.New(msgInvalidAnimalStatus)
	ErrInvalidWeight          = errors.New(msgInvalidWeight)
	ErrInvalidCoordinates     = errors.New(msgInvalidCoordinates)
	ErrInvalidVetActivity     = errors.New(msgInvalidVetActivity)
	ErrInvalidMedicineName    = errors.New(msgInvalidMedicineName)
	ErrInvalidMedicineStock   = errors.New(msgInvalidMedicineStock)
	ErrInsufficientStock      = errors.New(msgInsufficientStock)
	ErrZeroStockAdjustment    = errors.New(msgZeroStockAdjustment)
	ErrInvalidSortParameter   = errors.New(msgInvalidSortParameter)
	ErrPublishMetricsFailed   = errors.New(msgPublishMetricsFailed)
	ErrPublisherNotConfigured = errors.New(msgPublisherNotConfigured)
)

// IsValidationError reports whether err is caused by bad client input.
func IsValidationError(err error) bool {
	switch errors.Cause(err) {
	case ErrInvalidEarTag, ErrInvalidAnimalSex, ErrInvalidAnimalStatus, ErrInvalidWeight, ErrInvalidCoordinates,
		ErrInvalidVetActivity, ErrInvalidMedicineName, ErrInvalidMedicineStock, ErrInsufficientStock,
		ErrZeroStockAdjustment, ErrInvalidSortParameter:
		return true
	}
	return false
}
