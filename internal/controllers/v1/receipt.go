package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/receiptdesk/backend/internal/allocation"
	"github.com/receiptdesk/backend/internal/httputil"
	"github.com/receiptdesk/backend/internal/models"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// RegisterReceiptRoutes registers the routes for receipts with
// the RouterGroup that is passed.
func RegisterReceiptRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsReceiptList)
		r.GET("", GetReceipts)
		r.POST("", CreateReceipts)
	}

	// Receipt with ID
	{
		r.OPTIONS("/:id", OptionsReceiptDetail)
		r.GET("/:id", GetReceipt)
		r.PATCH("/:id", UpdateReceipt)
		r.DELETE("/:id", DeleteReceipt)
	}

	// Submit
	{
		r.OPTIONS("/:id/submit", OptionsReceiptSubmit)
		r.POST("/:id/submit", SubmitReceipt)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Receipts
// @Success		204
// @Router			/v1/receipts [options]
func OptionsReceiptList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Receipts
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/receipts/{id} [options]
func OptionsReceiptDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.Receipt{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Receipts
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/receipts/{id}/submit [options]
func OptionsReceiptSubmit(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.Receipt{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsPost(c)
}

// @Summary		Create receipts
// @Description	Creates new receipts
// @Tags			Receipts
// @Produce		json
// @Success		201			{object}	ReceiptCreateResponse
// @Failure		400			{object}	ReceiptCreateResponse
// @Failure		404			{object}	ReceiptCreateResponse
// @Failure		500			{object}	ReceiptCreateResponse
// @Param			receipts	body		[]ReceiptEditable	true	"Receipts"
// @Router			/v1/receipts [post]
func CreateReceipts(c *gin.Context) {
	var editables []ReceiptEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ReceiptCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := ReceiptCreateResponse{}

	for _, editable := range editables {
		receipt := editable.model()

		err = models.DB.Create(&receipt).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data, err := newReceipt(c, models.DB, receipt)
		if err != nil {
			status = r.appendError(err, status)
			continue
		}
		r.Data = append(r.Data, ReceiptResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get receipts
// @Description	Returns a list of receipts
// @Tags			Receipts
// @Produce		json
// @Success		200	{object}	ReceiptListResponse
// @Failure		400	{object}	ReceiptListResponse
// @Failure		500	{object}	ReceiptListResponse
// @Router			/v1/receipts [get]
// @Param			vendor		query	string	false	"Filter by vendor name"
// @Param			note		query	string	false	"Filter by note"
// @Param			submitted	query	bool	false	"Is the receipt submitted?"
// @Param			search		query	string	false	"Search for this text in vendor name, description and note"
// @Param			offset		query	uint	false	"The offset of the first receipt returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of receipts to return. Defaults to 50."
func GetReceipts(c *gin.Context) {
	var filter ReceiptQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	// Get the fields that we are filtering for
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := models.DB.
		Order("date DESC").
		Where(filter.model(), queryFields...)

	q = receiptFilters(models.DB, q, setFields, filter.Vendor, filter.Note, filter.Search)

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	// Default to 50 receipts and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var receipts []models.Receipt
	err := q.Find(&receipts).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ReceiptListResponse{
			Error: &e,
		})
		return
	}

	data := make([]Receipt, 0)
	for _, receipt := range receipts {
		apiResource, err := newReceipt(c, models.DB, receipt)
		if err != nil {
			s := err.Error()
			c.JSON(status(err), ReceiptListResponse{
				Error: &s,
			})
			return
		}
		data = append(data, apiResource)
	}

	c.JSON(http.StatusOK, ReceiptListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get receipt
// @Description	Returns a specific receipt
// @Tags			Receipts
// @Produce		json
// @Success		200	{object}	ReceiptResponse
// @Failure		400	{object}	ReceiptResponse
// @Failure		404	{object}	ReceiptResponse
// @Failure		500	{object}	ReceiptResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/receipts/{id} [get]
func GetReceipt(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	var receipt models.Receipt
	err = models.DB.First(&receipt, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	data, err := newReceipt(c, models.DB, receipt)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, ReceiptResponse{Data: &data})
}

// @Summary		Update receipt
// @Description	Update an existing receipt. Only values to be updated need to be specified. Submitted receipts cannot be changed.
// @Tags			Receipts
// @Accept			json
// @Produce		json
// @Success		200		{object}	ReceiptResponse
// @Failure		400		{object}	ReceiptResponse
// @Failure		404		{object}	ReceiptResponse
// @Failure		500		{object}	ReceiptResponse
// @Param			id		path		URIID			true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			receipt	body		ReceiptEditable	true	"Receipt"
// @Router			/v1/receipts/{id} [patch]
func UpdateReceipt(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	var receipt models.Receipt
	err = models.DB.First(&receipt, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	// Submitted receipts are read only
	if receipt.Submitted {
		s := models.ErrReceiptAlreadySubmitted.Error()
		c.JSON(http.StatusBadRequest, ReceiptResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, ReceiptEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	var data ReceiptEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Model(&receipt).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	r, err := newReceipt(c, models.DB, receipt)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, ReceiptResponse{Data: &r})
}

// @Summary		Delete receipt
// @Description	Deletes a receipt. Submitted receipts cannot be deleted.
// @Tags			Receipts
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/receipts/{id} [delete]
func DeleteReceipt(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var receipt models.Receipt
	err = models.DB.First(&receipt, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	// Submitted receipts are read only
	if receipt.Submitted {
		c.JSON(http.StatusBadRequest, httpError{
			Error: models.ErrReceiptAlreadySubmitted.Error(),
		})
		return
	}

	err = models.DB.Delete(&receipt).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// @Summary		Submit receipt
// @Description	Finalizes a receipt by storing its allocations. The allocations have to add up to the receipt total within the tolerance of 0.01.
// @Tags			Receipts
// @Accept			json
// @Produce		json
// @Success		200		{object}	ReceiptResponse
// @Failure		400		{object}	ReceiptResponse
// @Failure		404		{object}	ReceiptResponse
// @Failure		500		{object}	ReceiptResponse
// @Param			id		path		URIID			true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			submit	body		ReceiptSubmit	true	"Allocations"
// @Router			/v1/receipts/{id}/submit [post]
func SubmitReceipt(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	var receipt models.Receipt
	err = models.DB.First(&receipt, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	if receipt.Submitted {
		s := models.ErrReceiptAlreadySubmitted.Error()
		c.JSON(http.StatusBadRequest, ReceiptResponse{
			Error: &s,
		})
		return
	}

	var submit ReceiptSubmit
	err = httputil.BindData(c, &submit)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	if len(submit.Allocations) == 0 {
		s := errNoAllocations.Error()
		c.JSON(http.StatusBadRequest, ReceiptResponse{
			Error: &s,
		})
		return
	}

	calculator := allocation.New()
	err = calculator.Validate(submit.Allocations)
	if err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, ReceiptResponse{
			Error: &s,
		})
		return
	}

	if !calculator.State(submit.Allocations, receipt.Amount).IsValid {
		s := errReceiptNotBalanced.Error()
		c.JSON(http.StatusBadRequest, ReceiptResponse{
			Error: &s,
		})
		return
	}

	// Store all allocations and mark the receipt as submitted in one
	// transaction so that a failing work order reference rolls
	// everything back.
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		for _, line := range submit.Allocations {
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

		return tx.Model(&receipt).Select("Submitted").Updates(models.Receipt{Submitted: true}).Error
	})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	r, err := newReceipt(c, models.DB, receipt)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), ReceiptResponse{
			Error: &s,
		})
		return
	}

	c.JSON(http.StatusOK, ReceiptResponse{Data: &r})
}
