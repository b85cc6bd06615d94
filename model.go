package ranchapi

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/herdwatch/ranchapi/eventlog/service"
	"github.com/shopspring/decimal"
)

type GinApi interface {
	Run() error
	Shutdown(ctx context.Context) error
}

type AnimalSex string // @Name AnimalSex

const (
	Male   AnimalSex = "MALE"
	Female AnimalSex = "FEMALE"
)

func (s AnimalSex) IsValid() bool {
	return s == Male || s == Female
}

type AnimalStatus string // @Name AnimalStatus

const (
	AnimalActive     AnimalStatus = "ACTIVE"
	AnimalSold       AnimalStatus = "SOLD"
	AnimalDeceased   AnimalStatus = "DECEASED"
	AnimalQuarantine AnimalStatus = "QUARANTINE"
)

func (s AnimalStatus) IsValid() bool {
	switch s {
	case AnimalActive, AnimalSold, AnimalDeceased, AnimalQuarantine:
		return true
	}
	return false
}

// Animal - One head of cattle, identified on the ranch by its ear tag
type Animal struct {
	ID         uuid.UUID
	EarTag     string
	Name       string
	Breed      string
	Sex        AnimalSex
	BirthDate  *time.Time
	WeightKg   decimal.Decimal
	Location   *model.Location
	Status     AnimalStatus
	CreatedAt  time.Time
	ModifiedAt *time.Time
}

func (a Animal) Ref() service.CattleRef {
	return service.CattleRef{ID: a.ID.String(), EarTag: a.EarTag}
}

type StockStatus string // @Name StockStatus

const (
	StockOK         StockStatus = "OK"
	StockLow        StockStatus = "LOW"
	StockCritical   StockStatus = "CRITICAL"
	StockOutOfStock StockStatus = "OUT_OF_STOCK"
)

// MedicineStock - Quantity of one medicine held in the ranch pharmacy
type MedicineStock struct {
	ID         uuid.UUID
	Name       string
	Unit       string
	Quantity   decimal.Decimal
	MinStock   decimal.Decimal
	ExpiresAt  *time.Time
	CreatedAt  time.Time
	ModifiedAt *time.Time
}

func (m MedicineStock) Status() StockStatus {
	return ComputeStockStatus(m.Quantity, m.MinStock)
}

// ComputeStockStatus bands a quantity against its minimum stock level.
func ComputeStockStatus(quantity, minStock decimal.Decimal) StockStatus {
	switch {
	case quantity.LessThanOrEqual(decimal.Zero):
		return StockOutOfStock
	case quantity.LessThanOrEqual(minStock.Div(decimal.NewFromInt(2))):
		return StockCritical
	case quantity.LessThanOrEqual(minStock):
		return StockLow
	default:
		return StockOK
	}
}

type OpenIDConfiguration struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}

type TokenEndpointResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
}
