package ranchapi

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/herdwatch/ranchapi/db"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	msgCreateMedicineFailed         = "create medicine stock failed"
	msgMedicineAlreadyExists        = "a medicine with this name already exists"
	msgGetMedicinesFailed           = "get medicine stocks failed"
	msgGetMedicineByIDFailed        = "get medicine stock by id failed"
	msgMedicineNotFound             = "medicine stock not found"
	msgUpdateMedicineQuantityFailed = "update medicine quantity failed"
)

var (
	ErrCreateMedicineFailed         = errors.New(msgCreateMedicineFailed)
	ErrMedicineAlreadyExists        = errors.New(msgMedicineAlreadyExists)
	ErrGetMedicinesFailed           = errors.New(msgGetMedicinesFailed)
	ErrGetMedicineByIDFailed        = errors.New(msgGetMedicineByIDFailed)
	ErrMedicineNotFound             = errors.New(msgMedicineNotFound)
	ErrUpdateMedicineQuantityFailed = errors.New(msgUpdateMedicineQuantityFailed)
)

type medicineStockDAO struct {
	ID         uuid.UUID       `db:"id"`
	Name       string          `db:"name"`
	Unit       string          `db:"unit"`
	Quantity   decimal.Decimal `db:"quantity"`
	MinStock   decimal.Decimal `db:"min_stock"`
	ExpiresAt  sql.NullTime    `db:"expires_at"`
	CreatedAt  time.Time       `db:"created_at"`
	ModifiedAt sql.NullTime    `db:"modified_at"`
}

type MedicineRepository interface {
	CreateMedicine(ctx context.Context, medicine MedicineStock) (uuid.UUID, error)
	GetMedicines(ctx context.Context) ([]MedicineStock, error)
	GetMedicineByIDForUpdate(ctx context.Context, id uuid.UUID) (MedicineStock, error)
	UpdateMedicineQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error
	CreateTransaction() (db.DbConnector, error)
	WithTransaction(tx db.DbConnector) MedicineRepository
}

type medicineRepository struct {
	db       db.DbConnector
	dbSchema string
}

func NewMedicineRepository(db db.DbConnector, dbSchema string) MedicineRepository {
	log.Trace().Msg("Creating new medicine repository")
	return &medicineRepository{
		db:       db,
		dbSchema: dbSchema,
	}
}

func (r *medicineRepository) CreateMedicine(ctx context.Context, medicine MedicineStock) (uuid.UUID, error) {
	query := fmt.Sprintf(`INSERT INTO %s.rc_medicine_stock(id, "name", unit, quantity, min_stock, expires_at)
		VALUES(:id, :name, :unit, :quantity, :min_stock, :expires_at);`, r.dbSchema)
	if medicine.ID == uuid.Nil {
		medicine.ID = uuid.New()
	}
	_, err := r.db.NamedExecContext(ctx, query, convertMedicineStockToDAO(medicine))
	if err != nil {
		if db.IsErrorCode(err, db.UniqueViolationErrorCode) {
			return uuid.Nil, ErrMedicineAlreadyExists
		}
		log.Error().Err(err).Msg(msgCreateMedicineFailed)
		return uuid.Nil, ErrCreateMedicineFailed
	}
	return medicine.ID, nil
}

func (r *medicineRepository) GetMedicines(ctx context.Context) ([]MedicineStock, error) {
	query := fmt.Sprintf(`SELECT * FROM %s.rc_medicine_stock ORDER BY "name";`, r.dbSchema)
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		log.Error().Err(err).Msg(msgGetMedicinesFailed)
		return nil, ErrGetMedicinesFailed
	}
	defer rows.Close()
	medicines := make([]MedicineStock, 0)
	for rows.Next() {
		var dao medicineStockDAO
		err = rows.StructScan(&dao)
		if err != nil {
			log.Error().Err(err).Msg(msgGetMedicinesFailed)
			return nil, ErrGetMedicinesFailed
		}
		medicines = append(medicines, convertMedicineStockDaoToMedicineStock(dao))
	}
	return medicines, nil
}

// GetMedicineByIDForUpdate locks the row for the rest of the surrounding transaction.
func (r *medicineRepository) GetMedicineByIDForUpdate(ctx context.Context, id uuid.UUID) (MedicineStock, error) {
	query := fmt.Sprintf(`SELECT * FROM %s.rc_medicine_stock WHERE id = $1 FOR UPDATE;`, r.dbSchema)
	var dao medicineStockDAO
	err := r.db.QueryRowxContext(ctx, query, id).StructScan(&dao)
	if err != nil {
		if err == sql.ErrNoRows {
			return MedicineStock{}, ErrMedicineNotFound
		}
		log.Error().Err(err).Msg(msgGetMedicineByIDFailed)
		return MedicineStock{}, ErrGetMedicineByIDFailed
	}
	return convertMedicineStockDaoToMedicineStock(dao), nil
}

func (r *medicineRepository) UpdateMedicineQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error {
	query := fmt.Sprintf(`UPDATE %s.rc_medicine_stock SET quantity = $2, modified_at = timezone('utc', now()) WHERE id = $1;`, r.dbSchema)
	_, err := r.db.ExecContext(ctx, query, id, quantity)
	if err != nil {
		if db.IsErrorCode(err, db.CheckViolationErrorCode) {
			return ErrInsufficientStock
		}
		log.Error().Err(err).Msg(msgUpdateMedicineQuantityFailed)
		return ErrUpdateMedicineQuantityFailed
	}
	return nil
}

func (r *medicineRepository) CreateTransaction() (db.DbConnector, error) {
	return r.db.CreateTransactionConnector()
}

func (r *medicineRepository) WithTransaction(tx db.DbConnector) MedicineRepository {
	if tx == nil {
		return r
	}

	txRepo := *r
	txRepo.db = tx
	return &txRepo
}

func convertMedicineStockToDAO(medicine MedicineStock) medicineStockDAO {
	return medicineStockDAO{
		ID:        medicine.ID,
		Name:      medicine.Name,
		Unit:      medicine.Unit,
		Quantity:  medicine.Quantity,
		MinStock:  medicine.MinStock,
		ExpiresAt: timePointerToNullTime(medicine.ExpiresAt),
		CreatedAt: medicine.CreatedAt,
	}
}

func convertMedicineStockDaoToMedicineStock(dao medicineStockDAO) MedicineStock {
	return MedicineStock{
		ID:         dao.ID,
		Name:       dao.Name,
		Unit:       dao.Unit,
		Quantity:   dao.Quantity,
		MinStock:   dao.MinStock,
		ExpiresAt:  nullTimeToTimePointer(dao.ExpiresAt),
		CreatedAt:  dao.CreatedAt,
		ModifiedAt: nullTimeToTimePointer(dao.ModifiedAt),
	}
}
