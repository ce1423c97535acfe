package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/receiptdesk/backend/internal/httputil"
	"github.com/receiptdesk/backend/internal/models"
	"github.com/receiptdesk/backend/internal/suggestions"
	"github.com/shopspring/decimal"
)

// RegisterSuggestionRoutes registers the suggestion routes with
// the RouterGroup that is passed.
func RegisterSuggestionRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsSuggestions)
	r.POST("", GetSuggestions)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Suggestions
// @Success		204
// @Router			/v1/suggestions [options]
func OptionsSuggestions(c *gin.Context) {
	httputil.OptionsPost(c)
}

// SuggestionRequest is the request body for the suggestion endpoint.
type SuggestionRequest struct {
	Total        decimal.Decimal `json:"total" example:"1000.00"`     // Receipt total to allocate
	Vendor       string          `json:"vendor" example:"Home Depot"` // Vendor printed on the receipt. Used by the vendor heuristic.
	WorkOrderIDs []uuid.UUID     `json:"workOrderIds"`                // Work orders to suggest for, in display order. Defaults to all work orders that are not archived, newest first.
}

type SuggestionListResponse struct {
	Data  []suggestions.Suggestion `json:"data"`                                                          // Ranked allocation suggestions
	Error *string                  `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

// @Summary		Get suggestions
// @Description	Returns ranked allocation suggestions for a receipt total, most confident first
// @Tags			Suggestions
// @Accept			json
// @Produce		json
// @Success		200		{object}	SuggestionListResponse
// @Failure		400		{object}	SuggestionListResponse
// @Failure		404		{object}	SuggestionListResponse
// @Failure		500		{object}	SuggestionListResponse
// @Param			request	body		SuggestionRequest	true	"Receipt data"
// @Router			/v1/suggestions [post]
func GetSuggestions(c *gin.Context) {
	var request SuggestionRequest
	err := httputil.BindData(c, &request)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SuggestionListResponse{
			Error: &s,
		})
		return
	}

	workOrders, err := suggestionWorkOrders(request.WorkOrderIDs)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SuggestionListResponse{
			Error: &s,
		})
		return
	}

	data := suggestions.New().Suggest(workOrders, request.Total, request.Vendor)
	c.JSON(http.StatusOK, SuggestionListResponse{Data: data})
}

// suggestionWorkOrders resolves the work orders the suggestions are
// calculated for. When no IDs are given, all unarchived work orders are
// used with the most recently updated one first so that the recency
// heuristic prefers active work.
func suggestionWorkOrders(ids []uuid.UUID) ([]suggestions.WorkOrder, error) {
	var workOrders []models.WorkOrder

	if len(ids) == 0 {
		err := models.DB.Where(&models.WorkOrder{Archived: false}).Order("updated_at DESC").Find(&workOrders).Error
		if err != nil {
			return nil, err
		}
	} else {
		for _, id := range ids {
			var workOrder models.WorkOrder
			err := models.DB.First(&workOrder, id).Error
			if err != nil {
				return nil, err
			}
			workOrders = append(workOrders, workOrder)
		}
	}

	resolved := make([]suggestions.WorkOrder, 0, len(workOrders))
	for _, workOrder := range workOrders {
		resolved = append(resolved, suggestions.WorkOrder{
			ID:               workOrder.ID,
			Label:            workOrder.Label(),
			OrganizationName: workOrder.OrganizationName,
		})
	}

	return resolved, nil
}
