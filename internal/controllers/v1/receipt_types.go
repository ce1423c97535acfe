package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/receiptdesk/backend/internal/allocation"
	"github.com/receiptdesk/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReceiptEditable represents all user configurable parameters
type ReceiptEditable struct {
	VendorName  string          `json:"vendorName" example:"Home Depot" default:""`               // Vendor printed on the receipt
	Amount      decimal.Decimal `json:"amount" example:"131.37" default:"0"`                      // Receipt total
	Date        time.Time       `json:"date" example:"2024-05-17T00:00:00Z"`                      // Date printed on the receipt. Defaults to the current day.
	Description string          `json:"description" example:"Parts for the boiler" default:""`    // What was bought
	Note        string          `json:"note" example:"Reimbursed via May expense run" default:""` // Notes about the receipt
}

func (editable ReceiptEditable) model() models.Receipt {
	return models.Receipt{
		VendorName:  editable.VendorName,
		Amount:      editable.Amount,
		Date:        editable.Date,
		Description: editable.Description,
		Note:        editable.Note,
	}
}

type ReceiptLinks struct {
	Self   string `json:"self" example:"https://example.com/api/v1/receipts/d1371b2c-c2f0-4471-89b3-b09bc5195b0c"`          // The receipt itself
	Submit string `json:"submit" example:"https://example.com/api/v1/receipts/d1371b2c-c2f0-4471-89b3-b09bc5195b0c/submit"` // Endpoint to submit the allocations for this receipt
}

type Receipt struct {
	models.DefaultModel
	ReceiptEditable
	Submitted bool         `json:"submitted" example:"false"` // True once the allocations are finalized
	Links     ReceiptLinks `json:"links"`

	// This field is computed
	Allocations []allocation.Line `json:"allocations"` // Allocations for the receipt
}

func newReceipt(c *gin.Context, db *gorm.DB, model models.Receipt) (Receipt, error) {
	url := c.GetString(string(models.DBContextURL))

	receipt := Receipt{
		DefaultModel: model.DefaultModel,
		ReceiptEditable: ReceiptEditable{
			VendorName:  model.VendorName,
			Amount:      model.Amount,
			Date:        model.Date,
			Description: model.Description,
			Note:        model.Note,
		},
		Submitted: model.Submitted,
		Links: ReceiptLinks{
			Self:   fmt.Sprintf("%s/v1/receipts/%s", url, model.ID),
			Submit: fmt.Sprintf("%s/v1/receipts/%s/submit", url, model.ID),
		},
		Allocations: make([]allocation.Line, 0),
	}

	allocations, err := model.Allocations(db)
	if err != nil {
		return Receipt{}, err
	}

	for _, a := range allocations {
		receipt.Allocations = append(receipt.Allocations, allocation.Line{
			WorkOrderID: a.WorkOrderID,
			Amount:      a.Amount,
			Note:        a.Note,
		})
	}

	return receipt, nil
}

type ReceiptListResponse struct {
	Data       []Receipt   `json:"data"`                                                          // List of receipts
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type ReceiptCreateResponse struct {
	Data  []ReceiptResponse `json:"data"`                                                          // List of the created receipts or their respective error
	Error *string           `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (r *ReceiptCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, ReceiptResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type ReceiptResponse struct {
	Data  *Receipt `json:"data"`                                                          // Data for the receipt
	Error *string  `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type ReceiptQueryFilter struct {
	Vendor    string `form:"vendor" filterField:"false"` // By vendor name
	Note      string `form:"note" filterField:"false"`   // By note
	Submitted bool   `form:"submitted"`                  // Is the receipt submitted?
	Search    string `form:"search" filterField:"false"` // By string in vendor name, description or note
	Offset    uint   `form:"offset" filterField:"false"` // The offset of the first receipt returned. Defaults to 0.
	Limit     int    `form:"limit" filterField:"false"`  // Maximum number of receipts to return. Defaults to 50.
}

func (f ReceiptQueryFilter) model() models.Receipt {
	return models.Receipt{
		Submitted: f.Submitted,
	}
}

// ReceiptSubmit is the request body for the submit endpoint.
type ReceiptSubmit struct {
	Allocations []allocation.Line `json:"allocations" binding:"required"` // Allocations that distribute the receipt total
}
