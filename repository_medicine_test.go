package ranchapi

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedicineRepositoryCreateListAndUpdate(t *testing.T) {
	dbConnector, _ := setupDbConnectorAndRunMigration("medicine_repository_test")
	medicineRepository := NewMedicineRepository(dbConnector, "medicine_repository_test")
	ctx := context.Background()

	ivermectinID, err := medicineRepository.CreateMedicine(ctx, MedicineStock{
		Name: "Ivermectin", Unit: "ml", Quantity: decimal.NewFromInt(500), MinStock: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	_, err = medicineRepository.CreateMedicine(ctx, MedicineStock{
		Name: "Clostridial vaccine", Unit: "dose", Quantity: decimal.NewFromInt(40), MinStock: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	_, err = medicineRepository.CreateMedicine(ctx, MedicineStock{Name: "Ivermectin", Unit: "ml"})
	assert.Equal(t, ErrMedicineAlreadyExists, err)

	medicines, err := medicineRepository.GetMedicines(ctx)
	require.NoError(t, err)
	require.Len(t, medicines, 2)
	assert.Equal(t, "Clostridial vaccine", medicines[0].Name)
	assert.Equal(t, StockLow, medicines[0].Status())
	assert.Equal(t, StockOK, medicines[1].Status())

	transaction, err := medicineRepository.CreateTransaction()
	require.NoError(t, err)
	medicine, err := medicineRepository.WithTransaction(transaction).GetMedicineByIDForUpdate(ctx, ivermectinID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(medicine.Quantity))
	require.NoError(t, medicineRepository.WithTransaction(transaction).UpdateMedicineQuantity(ctx, ivermectinID, decimal.RequireFromString("12.5")))
	require.NoError(t, transaction.Commit())

	transaction, err = medicineRepository.CreateTransaction()
	require.NoError(t, err)
	medicine, err = medicineRepository.WithTransaction(transaction).GetMedicineByIDForUpdate(ctx, ivermectinID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(medicine.Quantity))
	assert.NotNil(t, medicine.ModifiedAt)

	err = medicineRepository.WithTransaction(transaction).UpdateMedicineQuantity(ctx, ivermectinID, decimal.NewFromInt(-1))
	assert.Equal(t, ErrInsufficientStock, err)
	_ = transaction.Rollback()

	_, err = medicineRepository.GetMedicineByIDForUpdate(ctx, uuid.New())
	assert.Equal(t, ErrMedicineNotFound, err)
}
