package models_test

import (
	"time"

	"github.com/receiptdesk/backend/internal/models"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestReceiptDateDefaultsToNow() {
	receipt := suite.createTestReceipt(models.Receipt{
		VendorName: "Home Depot",
		Amount:     decimal.RequireFromString("131.37"),
	})

	suite.Assert().False(receipt.Date.IsZero())
	suite.Assert().Equal(time.UTC, receipt.Date.Location())
}

func (suite *TestSuiteStandard) TestReceiptDateUTC() {
	berlin, err := time.LoadLocation("Europe/Berlin")
	suite.Require().NoError(err)

	receipt := suite.createTestReceipt(models.Receipt{
		VendorName: "Home Depot",
		Amount:     decimal.RequireFromString("10.00"),
		Date:       time.Date(2024, 5, 17, 12, 0, 0, 0, berlin),
	})

	suite.Assert().Equal(time.UTC, receipt.Date.Location())
}

func (suite *TestSuiteStandard) TestReceiptAmountNegative() {
	err := models.DB.Create(&models.Receipt{
		VendorName: "Home Depot",
		Amount:     decimal.RequireFromString("-1.00"),
	}).Error

	suite.Assert().ErrorIs(err, models.ErrAmountNegative)
}

func (suite *TestSuiteStandard) TestReceiptAllocations() {
	receipt := suite.createTestReceipt(models.Receipt{
		VendorName: "Home Depot",
		Amount:     decimal.RequireFromString("100.00"),
	})
	workOrder := suite.createTestWorkOrder(models.WorkOrder{Number: "WO-2001", Title: "HVAC repair"})

	err := models.DB.Create(&models.ReceiptAllocation{
		ReceiptID:   receipt.ID,
		WorkOrderID: workOrder.ID,
		Amount:      decimal.RequireFromString("100.00"),
	}).Error
	suite.Require().NoError(err)

	allocations, err := receipt.Allocations(models.DB)
	suite.Require().NoError(err)
	suite.Assert().Len(allocations, 1)
	suite.Assert().True(allocations[0].Amount.Equal(decimal.RequireFromString("100.00")))
}
