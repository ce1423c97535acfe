package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/receiptdesk/backend/internal/models"
)

// WorkOrderEditable represents all user configurable parameters
type WorkOrderEditable struct {
	Number           string `json:"number" example:"WO-2317" default:""`                      // Unique work order number
	Title            string `json:"title" example:"HVAC repair" default:""`                   // Short description of the work
	OrganizationName string `json:"organizationName" example:"Acme Co" default:""`            // Organization the work order belongs to
	Note             string `json:"note" example:"Recurring maintenance contract" default:""` // Notes about the work order
	Archived         bool   `json:"archived" example:"true" default:"false"`                  // Is the work order archived?
}

func (editable WorkOrderEditable) model() models.WorkOrder {
	return models.WorkOrder{
		Number:           editable.Number,
		Title:            editable.Title,
		OrganizationName: editable.OrganizationName,
		Note:             editable.Note,
		Archived:         editable.Archived,
	}
}

type WorkOrderLinks struct {
	Self string `json:"self" example:"https://example.com/api/v1/work-orders/3b1ea324-d438-4419-882a-2fc91d71772f"` // The work order itself
}

type WorkOrder struct {
	models.DefaultModel
	WorkOrderEditable
	Links WorkOrderLinks `json:"links"`

	// This field is computed
	Label string `json:"label" example:"WO-2317 HVAC repair"` // Display label for the work order
}

func newWorkOrder(c *gin.Context, model models.WorkOrder) WorkOrder {
	url := c.GetString(string(models.DBContextURL))

	return WorkOrder{
		DefaultModel: model.DefaultModel,
		WorkOrderEditable: WorkOrderEditable{
			Number:           model.Number,
			Title:            model.Title,
			OrganizationName: model.OrganizationName,
			Note:             model.Note,
			Archived:         model.Archived,
		},
		Links: WorkOrderLinks{
			Self: fmt.Sprintf("%s/v1/work-orders/%s", url, model.ID),
		},
		Label: model.Label(),
	}
}

type WorkOrderListResponse struct {
	Data       []WorkOrder `json:"data"`                                                          // List of work orders
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type WorkOrderCreateResponse struct {
	Data  []WorkOrderResponse `json:"data"`                                                          // List of the created work orders or their respective error
	Error *string             `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (w *WorkOrderCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	w.Data = append(w.Data, WorkOrderResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type WorkOrderResponse struct {
	Data  *WorkOrder `json:"data"`                                                          // Data for the work order
	Error *string    `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type WorkOrderQueryFilter struct {
	Number   string `form:"number" filterField:"false"` // By number
	Title    string `form:"title" filterField:"false"`  // By title
	Note     string `form:"note" filterField:"false"`   // By note
	Archived bool   `form:"archived"`                   // Is the work order archived?
	Search   string `form:"search" filterField:"false"` // By string in number, title or note
	Offset   uint   `form:"offset" filterField:"false"` // The offset of the first work order returned. Defaults to 0.
	Limit    int    `form:"limit" filterField:"false"`  // Maximum number of work orders to return. Defaults to 50.
}

func (f WorkOrderQueryFilter) model() models.WorkOrder {
	return models.WorkOrder{
		Archived: f.Archived,
	}
}
