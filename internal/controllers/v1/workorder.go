package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/receiptdesk/backend/internal/httputil"
	"github.com/receiptdesk/backend/internal/models"
	"golang.org/x/exp/slices"
)

// RegisterWorkOrderRoutes registers the routes for work orders with
// the RouterGroup that is passed.
func RegisterWorkOrderRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsWorkOrderList)
		r.GET("", GetWorkOrders)
		r.POST("", CreateWorkOrders)
	}

	// Work order with ID
	{
		r.OPTIONS("/:id", OptionsWorkOrderDetail)
		r.GET("/:id", GetWorkOrder)
		r.PATCH("/:id", UpdateWorkOrder)
		r.DELETE("/:id", DeleteWorkOrder)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			WorkOrders
// @Success		204
// @Router			/v1/work-orders [options]
func OptionsWorkOrderList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			WorkOrders
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/work-orders/{id} [options]
func OptionsWorkOrderDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.WorkOrder{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Create work orders
// @Description	Creates new work orders
// @Tags			WorkOrders
// @Produce		json
// @Success		201			{object}	WorkOrderCreateResponse
// @Failure		400			{object}	WorkOrderCreateResponse
// @Failure		404			{object}	WorkOrderCreateResponse
// @Failure		500			{object}	WorkOrderCreateResponse
// @Param			workOrders	body		[]WorkOrderEditable	true	"Work orders"
// @Router			/v1/work-orders [post]
func CreateWorkOrders(c *gin.Context) {
	var editables []WorkOrderEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), WorkOrderCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := WorkOrderCreateResponse{}

	for _, editable := range editables {
		workOrder := editable.model()

		err = models.DB.Create(&workOrder).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newWorkOrder(c, workOrder)
		r.Data = append(r.Data, WorkOrderResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get work orders
// @Description	Returns a list of work orders
// @Tags			WorkOrders
// @Produce		json
// @Success		200	{object}	WorkOrderListResponse
// @Failure		400	{object}	WorkOrderListResponse
// @Failure		500	{object}	WorkOrderListResponse
// @Router			/v1/work-orders [get]
// @Param			number		query	string	false	"Filter by number"
// @Param			title		query	string	false	"Filter by title"
// @Param			note		query	string	false	"Filter by note"
// @Param			archived	query	bool	false	"Is the work order archived?"
// @Param			search		query	string	false	"Search for this text in number, title and note"
// @Param			offset		query	uint	false	"The offset of the first work order returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of work orders to return. Defaults to 50."
func GetWorkOrders(c *gin.Context) {
	var filter WorkOrderQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	// Get the fields that we are filtering for
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("number ASC").
		Where(filter.model(), queryFields...)

	q = workOrderFilters(models.DB, q, setFields, filter.Number, filter.Title, filter.Note, filter.Search)

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	// Default to 50 work orders and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var workOrders []models.WorkOrder
	err := q.Find(&workOrders).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkOrderListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), WorkOrderListResponse{
			Error: &e,
		})
		return
	}

	data := make([]WorkOrder, 0)
	for _, workOrder := range workOrders {
		data = append(data, newWorkOrder(c, workOrder))
	}

	c.JSON(http.StatusOK, WorkOrderListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get work order
// @Description	Returns a specific work order
// @Tags			WorkOrders
// @Produce		json
// @Success		200	{object}	WorkOrderResponse
// @Failure		400	{object}	WorkOrderResponse
// @Failure		404	{object}	WorkOrderResponse
// @Failure		500	{object}	WorkOrderResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/work-orders/{id} [get]
func GetWorkOrder(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkOrderResponse{
			Error: &s,
		})
		return
	}

	var workOrder models.WorkOrder
	err = models.DB.First(&workOrder, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkOrderResponse{
			Error: &s,
		})
		return
	}

	data := newWorkOrder(c, workOrder)
	c.JSON(http.StatusOK, WorkOrderResponse{Data: &data})
}

// @Summary		Update work order
// @Description	Update an existing work order. Only values to be updated need to be specified.
// @Tags			WorkOrders
// @Accept			json
// @Produce		json
// @Success		200			{object}	WorkOrderResponse
// @Failure		400			{object}	WorkOrderResponse
// @Failure		404			{object}	WorkOrderResponse
// @Failure		500			{object}	WorkOrderResponse
// @Param			id			path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			workOrder	body		WorkOrderEditable	true	"Work order"
// @Router			/v1/work-orders/{id} [patch]
func UpdateWorkOrder(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkOrderResponse{
			Error: &s,
		})
		return
	}

	var workOrder models.WorkOrder
	err = models.DB.First(&workOrder, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkOrderResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, WorkOrderEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkOrderResponse{
			Error: &s,
		})
		return
	}

	var data WorkOrderEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkOrderResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Model(&workOrder).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), WorkOrderResponse{
			Error: &s,
		})
		return
	}

	r := newWorkOrder(c, workOrder)
	c.JSON(http.StatusOK, WorkOrderResponse{Data: &r})
}

// @Summary		Delete work order
// @Description	Deletes a work order
// @Tags			WorkOrders
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/work-orders/{id} [delete]
func DeleteWorkOrder(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var workOrder models.WorkOrder
	err = models.DB.First(&workOrder, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&workOrder).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
