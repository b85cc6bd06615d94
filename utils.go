package ranchapi

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/herdwatch/ranchapi/eventlog/model"
)

// AgeInMonths counts the completed months between birthDate and now; a future birth date gives 0.
func AgeInMonths(birthDate, now time.Time) int {
	birthDate = birthDate.UTC()
	now = now.UTC()
	if now.Before(birthDate) {
		return 0
	}
	months := (now.Year()-birthDate.Year())*12 + int(now.Month()) - int(birthDate.Month())
	if now.Day() < birthDate.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// IsValidCoordinate checks the WGS84 ranges.
func IsValidCoordinate(latitude, longitude float64) bool {
	return latitude >= -90 && latitude <= 90 && longitude >= -180 && longitude <= 180
}

func nullTimeToTimePointer(value sql.NullTime) *time.Time {
	if value.Valid {
		return &value.Time
	}
	return nil
}

func timePointerToNullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value.UTC(), Valid: true}
}

func nullCoordinatesToLocation(latitude, longitude sql.NullFloat64, address string) *model.Location {
	if !latitude.Valid || !longitude.Valid {
		return nil
	}
	return &model.Location{Latitude: latitude.Float64, Longitude: longitude.Float64, Address: address}
}

// applyPagination renders ORDER BY / LIMIT / OFFSET. Sort keys are looked up in sortColumns so that
// client input never reaches the query text.
func applyPagination(pageable Pageable, sortColumns map[string]string, tableAlias, defaultSort string) (string, error) {
	var query strings.Builder
	if pageable.Sort != "" {
		column, ok := sortColumns[pageable.Sort]
		if !ok || !pageable.Direction.IsValid() {
			return "", ErrInvalidSortParameter
		}
		query.WriteString(" ORDER BY " + tableAlias + "." + column)
		if pageable.Direction != SortNone {
			query.WriteString(" " + strings.ToUpper(pageable.Direction.String()))
		}
	} else if defaultSort != "" {
		query.WriteString(" ORDER BY " + defaultSort)
	}
	if pageable.IsPaged() {
		query.WriteString(" LIMIT " + strconv.Itoa(pageable.PageSize))
		if offset := pageable.Offset(); offset > 0 {
			query.WriteString(" OFFSET " + strconv.Itoa(offset))
		}
	}
	return query.String(), nil
}
