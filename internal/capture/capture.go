// Package capture wires the receipt capture session to the database.
//
// It loads the work order directory for new sessions and persists
// finalized sessions as a receipt with its allocations.
package capture

import (
	"context"

	"github.com/receiptdesk/backend/internal/models"
	"github.com/receiptdesk/backend/internal/session"
	"github.com/receiptdesk/backend/internal/suggestions"
	"gorm.io/gorm"
)

// WorkOrders returns the work order directory for capture sessions.
// Archived work orders are not offered, the most recently updated work
// order comes first.
func WorkOrders(db *gorm.DB) ([]suggestions.WorkOrder, error) {
	var workOrders []models.WorkOrder

	err := db.Where(&models.WorkOrder{Archived: false}).Order("updated_at DESC").Find(&workOrders).Error
	if err != nil {
		return nil, err
	}

	directory := make([]suggestions.WorkOrder, 0, len(workOrders))
	for _, workOrder := range workOrders {
		directory = append(directory, suggestions.WorkOrder{
			ID:               workOrder.ID,
			Label:            workOrder.Label(),
			OrganizationName: workOrder.OrganizationName,
		})
	}

	return directory, nil
}

// NewSession starts a capture session with the current work order
// directory.
func NewSession(db *gorm.DB) (*session.Session, error) {
	directory, err := WorkOrders(db)
	if err != nil {
		return nil, err
	}

	return session.New(directory), nil
}

// Submitter persists finalized capture sessions.
type Submitter struct {
	DB *gorm.DB
}

var _ session.Submitter = Submitter{}

// Submit stores the submission as a submitted receipt with its
// allocations. Everything is written in one transaction so a failing
// work order reference rolls the whole submission back.
func (s Submitter) Submit(ctx context.Context, submission session.Submission) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		receipt := models.Receipt{
			VendorName:  submission.VendorName,
			Amount:      submission.Amount,
			Date:        submission.ReceiptDate,
			Description: submission.Description,
			Note:        submission.Note,
			Submitted:   true,
		}

		if err := tx.Create(&receipt).Error; err != nil {
			return err
		}

		for _, line := range submission.Allocations {
			err := tx.Create(&models.ReceiptAllocation{
				ReceiptID:   receipt.ID,
				WorkOrderID: line.WorkOrderID,
				Amount:      line.Amount,
				Note:        line.Note,
			}).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
}
