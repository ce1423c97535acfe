package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReceiptAllocation is one line of a receipt's distribution: an amount
// attributed to a single work order.
type ReceiptAllocation struct {
	DefaultModel
	ReceiptID   uuid.UUID       `json:"receiptId" gorm:"uniqueIndex:receipt_work_order"` // Receipt the allocation belongs to
	Receipt     Receipt         `json:"-"`
	WorkOrderID uuid.UUID       `json:"workOrderId" gorm:"uniqueIndex:receipt_work_order"` // Work order the amount is attributed to
	WorkOrder   WorkOrder       `json:"-"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)" example:"33.34"` // Allocated amount
	Note        string          `json:"note,omitempty" example:"Filters for unit 4"`      // Notes for this allocation
}

func (a *ReceiptAllocation) BeforeCreate(tx *gorm.DB) error {
	_ = a.DefaultModel.BeforeCreate(tx)

	toSave := tx.Statement.Dest.(*ReceiptAllocation)
	return a.checkIntegrity(tx, *toSave)
}

func (a *ReceiptAllocation) BeforeUpdate(tx *gorm.DB) (err error) {
	toSave := tx.Statement.Dest.(ReceiptAllocation)

	if tx.Statement.Changed("ReceiptID") || tx.Statement.Changed("WorkOrderID") {
		err := a.checkIntegrity(tx, toSave)
		if err != nil {
			return err
		}
	}

	return nil
}

// checkIntegrity verifies that the referenced receipt and work order
// exist.
func (a *ReceiptAllocation) checkIntegrity(tx *gorm.DB, toSave ReceiptAllocation) error {
	err := tx.First(&Receipt{}, toSave.ReceiptID).Error
	if err != nil {
		return err
	}

	return tx.First(&WorkOrder{}, toSave.WorkOrderID).Error
}

func (a *ReceiptAllocation) BeforeSave(_ *gorm.DB) error {
	a.Note = strings.TrimSpace(a.Note)

	return nil
}

func (a *ReceiptAllocation) AfterSave(_ *gorm.DB) error {
	if a.Amount.IsNegative() {
		return ErrAmountNegative
	}

	return nil
}
