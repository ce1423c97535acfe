package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Receipt is a captured receipt. Its amount is distributed across work
// orders by ReceiptAllocation rows once it is submitted.
type Receipt struct {
	DefaultModel
	VendorName  string          `json:"vendorName" example:"Home Depot"`                         // Vendor printed on the receipt
	Amount      decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)" example:"131.37"`       // Receipt total
	Date        time.Time       `json:"date" example:"2024-05-17T00:00:00Z"`                     // Date printed on the receipt
	Description string          `json:"description,omitempty" example:"Parts for the boiler"`    // What was bought
	Note        string          `json:"note,omitempty" example:"Reimbursed via May expense run"` // Notes about the receipt
	Submitted   bool            `json:"submitted" example:"false"`                               // True once the allocations are finalized
}

func (r *Receipt) BeforeSave(_ *gorm.DB) error {
	r.VendorName = strings.TrimSpace(r.VendorName)
	r.Description = strings.TrimSpace(r.Description)
	r.Note = strings.TrimSpace(r.Note)

	if r.Date.IsZero() {
		r.Date = time.Now().In(time.UTC)
	} else {
		r.Date = r.Date.In(time.UTC)
	}

	return nil
}

// AfterFind sets the timezone of the date to UTC, see DefaultModel.
func (r *Receipt) AfterFind(tx *gorm.DB) error {
	_ = r.DefaultModel.AfterFind(tx)

	r.Date = r.Date.In(time.UTC)
	return nil
}

func (r *Receipt) AfterSave(_ *gorm.DB) error {
	if r.Amount.IsNegative() {
		return ErrAmountNegative
	}

	return nil
}

// Allocations returns the allocations for this receipt.
func (r Receipt) Allocations(db *gorm.DB) ([]ReceiptAllocation, error) {
	var allocations []ReceiptAllocation

	err := db.Where(&ReceiptAllocation{ReceiptID: r.ID}).Order("created_at ASC").Find(&allocations).Error
	if err != nil {
		return nil, err
	}

	return allocations, nil
}
