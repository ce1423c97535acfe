package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/receiptdesk/backend/internal/allocation"
	"github.com/receiptdesk/backend/internal/httputil"
	"github.com/shopspring/decimal"
)

// RegisterAllocationRoutes registers the stateless calculator routes
// with the RouterGroup that is passed.
func RegisterAllocationRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/split-even", OptionsAllocationPost)
	r.POST("/split-even", SplitEven)

	r.OPTIONS("/round", OptionsAllocationPost)
	r.POST("/round", RoundAllocations)

	r.OPTIONS("/distribute", OptionsAllocationPost)
	r.POST("/distribute", DistributeRemainder)

	r.OPTIONS("/state", OptionsAllocationPost)
	r.POST("/state", AllocationState)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allocations
// @Success		204
// @Router			/v1/allocations/split-even [options]
func OptionsAllocationPost(c *gin.Context) {
	httputil.OptionsPost(c)
}

// SplitEvenRequest is the request body for the split-even endpoint.
type SplitEvenRequest struct {
	WorkOrderIDs []uuid.UUID     `json:"workOrderIds" binding:"required"` // Work orders to split the total across, in display order
	Total        decimal.Decimal `json:"total" example:"100.00"`          // Receipt total to split
}

type AllocationLinesResponse struct {
	Data  []allocation.Line `json:"data"`                                                        // The calculated allocations
	Error *string           `json:"error" example:"the amount to allocate must not be negative"` // The error, if any occurred
}

// @Summary		Split evenly
// @Description	Splits a receipt total evenly across work orders. A rounding residual is added to the first line.
// @Tags			Allocations
// @Accept			json
// @Produce		json
// @Success		200		{object}	AllocationLinesResponse
// @Failure		400		{object}	AllocationLinesResponse
// @Param			request	body		SplitEvenRequest	true	"Work orders and total"
// @Router			/v1/allocations/split-even [post]
func SplitEven(c *gin.Context) {
	var request SplitEvenRequest
	err := httputil.BindData(c, &request)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationLinesResponse{
			Error: &s,
		})
		return
	}

	lines, err := allocation.New().SplitEvenly(request.WorkOrderIDs, request.Total)
	if err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, AllocationLinesResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, AllocationLinesResponse{Data: lines})
}

// RoundRequest is the request body for the round endpoint.
type RoundRequest struct {
	Lines []allocation.Line `json:"lines" binding:"required"` // Allocations to round
	Step  decimal.Decimal   `json:"step" example:"5"`         // Step to round each amount to, e.g. 5 rounds to the nearest multiple of 5
}

// @Summary		Round allocations
// @Description	Rounds every allocation to the nearest multiple of the step. This is lossy, the sum is not preserved.
// @Tags			Allocations
// @Accept			json
// @Produce		json
// @Success		200		{object}	AllocationLinesResponse
// @Failure		400		{object}	AllocationLinesResponse
// @Param			request	body		RoundRequest	true	"Allocations and step"
// @Router			/v1/allocations/round [post]
func RoundAllocations(c *gin.Context) {
	var request RoundRequest
	err := httputil.BindData(c, &request)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationLinesResponse{
			Error: &s,
		})
		return
	}

	lines, err := allocation.New().RoundToNearest(request.Lines, request.Step)
	if err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, AllocationLinesResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, AllocationLinesResponse{Data: lines})
}

// DistributeRequest is the request body for the distribute endpoint.
type DistributeRequest struct {
	Lines []allocation.Line `json:"lines" binding:"required"` // Current allocations
	Total decimal.Decimal   `json:"total" example:"100.00"`   // Receipt total
}

// @Summary		Distribute remainder
// @Description	Adds the unallocated remainder of the receipt total to the last allocation. Balanced allocations are returned unchanged.
// @Tags			Allocations
// @Accept			json
// @Produce		json
// @Success		200		{object}	AllocationLinesResponse
// @Failure		400		{object}	AllocationLinesResponse
// @Param			request	body		DistributeRequest	true	"Allocations and total"
// @Router			/v1/allocations/distribute [post]
func DistributeRemainder(c *gin.Context) {
	var request DistributeRequest
	err := httputil.BindData(c, &request)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationLinesResponse{
			Error: &s,
		})
		return
	}

	lines, err := allocation.New().DistributeRemainder(request.Lines, request.Total)
	if err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, AllocationLinesResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, AllocationLinesResponse{Data: lines})
}

// StateRequest is the request body for the state endpoint.
type StateRequest struct {
	Lines []allocation.Line `json:"lines" binding:"required"` // Current allocations
	Total decimal.Decimal   `json:"total" example:"100.00"`   // Receipt total
}

type AllocationStateResponse struct {
	Data  *allocation.State `json:"data"`                                               // The calculated allocation state
	Error *string           `json:"error" example:"the request body must not be empty"` // The error, if any occurred
}

// @Summary		Allocation state
// @Description	Returns the balance state for a set of allocations against a receipt total
// @Tags			Allocations
// @Accept			json
// @Produce		json
// @Success		200		{object}	AllocationStateResponse
// @Failure		400		{object}	AllocationStateResponse
// @Param			request	body		StateRequest	true	"Allocations and total"
// @Router			/v1/allocations/state [post]
func AllocationState(c *gin.Context) {
	var request StateRequest
	err := httputil.BindData(c, &request)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationStateResponse{
			Error: &s,
		})
		return
	}

	state := allocation.New().State(request.Lines, request.Total)
	c.JSON(http.StatusOK, AllocationStateResponse{Data: &state})
}
