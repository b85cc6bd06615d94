package ranchapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/herdwatch/ranchapi/eventlog/model"
	"github.com/herdwatch/ranchapi/eventlog/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type InventoryService interface {
	GetMedicines(ctx context.Context) ([]MedicineStock, error)
	CreateMedicine(ctx context.Context, rc *model.RequestContext, medicine MedicineStock) (MedicineStock, error)
	AdjustStock(ctx context.Context, rc *model.RequestContext, id uuid.UUID, delta decimal.Decimal, reason string) (MedicineStock, error)
}

type inventoryService struct {
	medicineRepository MedicineRepository
	eventLogService    service.EventLogService
}

func NewInventoryService(medicineRepository MedicineRepository, eventLogService service.EventLogService) InventoryService {
	log.Trace().Msg("Creating new inventory service")
	return &inventoryService{
		medicineRepository: medicineRepository,
		eventLogService:    eventLogService,
	}
}

func (s *inventoryService) GetMedicines(ctx context.Context) ([]MedicineStock, error) {
	return s.medicineRepository.GetMedicines(ctx)
}

func (s *inventoryService) CreateMedicine(ctx context.Context, rc *model.RequestContext, medicine MedicineStock) (MedicineStock, error) {
	medicine.Name = strings.TrimSpace(medicine.Name)
	medicine.Unit = strings.TrimSpace(medicine.Unit)
	if medicine.Name == "" || medicine.Unit == "" {
		return MedicineStock{}, ErrInvalidMedicineName
	}
	if medicine.Quantity.IsNegative() || medicine.MinStock.IsNegative() {
		return MedicineStock{}, ErrInvalidMedicineStock
	}
	id, err := s.medicineRepository.CreateMedicine(ctx, medicine)
	if err != nil {
		return MedicineStock{}, err
	}
	medicine.ID = id

	s.eventLogService.LogCattleEvent(model.EventInventoryUpdate, fmt.Sprintf("Medicine %s added to inventory", medicine.Name), rc,
		medicineMetadata(medicine, nil))
	return medicine, nil
}

// AdjustStock applies a signed delta under a row lock and warns when the result falls to or below the minimum stock.
func (s *inventoryService) AdjustStock(ctx context.Context, rc *model.RequestContext, id uuid.UUID, delta decimal.Decimal, reason string) (MedicineStock, error) {
	if delta.IsZero() {
		return MedicineStock{}, ErrZeroStockAdjustment
	}

	transaction, err := s.medicineRepository.CreateTransaction()
	if err != nil {
		return MedicineStock{}, err
	}
	medicine, err := s.medicineRepository.WithTransaction(transaction).GetMedicineByIDForUpdate(ctx, id)
	if err != nil {
		_ = transaction.Rollback()
		return MedicineStock{}, err
	}
	previousQuantity := medicine.Quantity
	medicine.Quantity = medicine.Quantity.Add(delta)
	if medicine.Quantity.IsNegative() {
		_ = transaction.Rollback()
		return MedicineStock{}, ErrInsufficientStock
	}
	if err = s.medicineRepository.WithTransaction(transaction).UpdateMedicineQuantity(ctx, id, medicine.Quantity); err != nil {
		_ = transaction.Rollback()
		return MedicineStock{}, err
	}
	if err = transaction.Commit(); err != nil {
		return MedicineStock{}, err
	}

	s.eventLogService.LogCattleEvent(model.EventInventoryUpdate,
		fmt.Sprintf("Medicine %s adjusted by %s %s", medicine.Name, delta.String(), medicine.Unit), rc,
		medicineMetadata(medicine, map[string]interface{}{
			"delta":            delta.String(),
			"previousQuantity": previousQuantity.String(),
			"reason":           reason,
		}))

	if status := medicine.Status(); status != StockOK {
		record := model.LogRecord{
			Level:     model.Warn,
			EventType: model.EventMedicineStockLow,
			Message: fmt.Sprintf("Medicine %s stock is %s: %s %s left (minimum %s)",
				medicine.Name, status, medicine.Quantity.String(), medicine.Unit, medicine.MinStock.String()),
			Metadata: medicineMetadata(medicine, map[string]interface{}{"stockStatus": string(status)}),
		}
		record.ApplyRequestContext(rc)
		s.eventLogService.Record(record)
	}
	return medicine, nil
}

func medicineMetadata(medicine MedicineStock, metadata map[string]interface{}) map[string]interface{} {
	if metadata == nil {
		metadata = make(map[string]interface{}, 5)
	}
	metadata["medicineId"] = medicine.ID.String()
	metadata["medicine"] = medicine.Name
	metadata["quantity"] = medicine.Quantity.String()
	metadata["minStock"] = medicine.MinStock.String()
	metadata["unit"] = medicine.Unit
	return metadata
}
