package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/receiptdesk/backend/internal/capture"
	"github.com/receiptdesk/backend/internal/httputil"
	"github.com/receiptdesk/backend/internal/models"
	"github.com/receiptdesk/backend/internal/session"
	"github.com/receiptdesk/backend/internal/suggestions"
)

// RegisterSessionRoutes registers the routes for receipt capture
// sessions with the RouterGroup that is passed.
func RegisterSessionRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsSessionList)
		r.POST("", CreateSession)
	}

	// Session with ID
	{
		r.OPTIONS("/:id", OptionsSessionDetail)
		r.GET("/:id", GetSession)
		r.PATCH("/:id", UpdateSessionFields)
		r.DELETE("/:id", DeleteSession)
	}

	// Flow transitions
	{
		r.OPTIONS("/:id/scan", OptionsSessionAction)
		r.POST("/:id/scan", ScanReceipt)

		r.OPTIONS("/:id/cancel", OptionsSessionAction)
		r.POST("/:id/cancel", CancelScan)

		r.OPTIONS("/:id/manual", OptionsSessionAction)
		r.POST("/:id/manual", EnterSessionManually)

		r.OPTIONS("/:id/single", OptionsSessionAction)
		r.POST("/:id/single", UseSingleWorkOrder)

		r.OPTIONS("/:id/split", OptionsSessionAction)
		r.POST("/:id/split", UseSplit)

		r.OPTIONS("/:id/allocations", OptionsSessionAction)
		r.POST("/:id/allocations", SetSessionAllocations)

		r.OPTIONS("/:id/suggestions", OptionsSessionSuggestions)
		r.GET("/:id/suggestions", GetSessionSuggestions)
		r.POST("/:id/suggestions", ApplySessionSuggestion)

		r.OPTIONS("/:id/work-orders", OptionsSessionAction)
		r.POST("/:id/work-orders", RefreshSessionWorkOrders)

		r.OPTIONS("/:id/submit", OptionsSessionAction)
		r.POST("/:id/submit", SubmitSession)
	}
}

// sessionFromURI resolves the session for the request. When it returns
// false, the error response has already been written.
func sessionFromURI(c *gin.Context) (*session.Session, bool) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), SessionResponse{
			Error: &s,
		})
		return nil, false
	}

	s, ok := sessions.get(uri.ID.UUID)
	if !ok {
		e := errSessionNotFound.Error()
		c.JSON(http.StatusNotFound, SessionResponse{
			Error: &e,
		})
		return nil, false
	}

	return s, true
}

// respondSession writes the session representation.
func respondSession(c *gin.Context, s *session.Session, code int) {
	data := newCaptureSession(c, s)
	c.JSON(code, SessionResponse{Data: &data})
}

// sessionError writes the error response for a failed session
// operation.
func sessionError(c *gin.Context, err error) {
	s := err.Error()
	c.JSON(sessionStatus(err), SessionResponse{
		Error: &s,
	})
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sessions
// @Success		204
// @Router			/v1/sessions [options]
func OptionsSessionList(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sessions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id} [options]
func OptionsSessionDetail(c *gin.Context) {
	if _, ok := sessionFromURI(c); !ok {
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sessions
// @Success		204
// @Router			/v1/sessions/{id}/scan [options]
func OptionsSessionAction(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sessions
// @Success		204
// @Router			/v1/sessions/{id}/suggestions [options]
func OptionsSessionSuggestions(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Create session
// @Description	Starts a receipt capture session with the current work order directory
// @Tags			Sessions
// @Produce		json
// @Success		201	{object}	SessionResponse
// @Failure		500	{object}	SessionResponse
// @Router			/v1/sessions [post]
func CreateSession(c *gin.Context) {
	s, err := capture.NewSession(models.DB)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), SessionResponse{
			Error: &e,
		})
		return
	}

	sessions.add(s)

	data := newCaptureSession(c, s)
	c.JSON(http.StatusCreated, SessionResponse{Data: &data})
}

// @Summary		Get session
// @Description	Returns a specific capture session
// @Tags			Sessions
// @Produce		json
// @Success		200	{object}	SessionResponse
// @Failure		400	{object}	SessionResponse
// @Failure		404	{object}	SessionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id} [get]
func GetSession(c *gin.Context) {
	s, ok := sessionFromURI(c)
	if !ok {
		return
	}

	respondSession(c, s, http.StatusOK)
}

// @Summary		Update session fields
// @Description	Updates the receipt fields of a session. Only values to be updated need to be specified.
// @Tags			Sessions
// @Accept			json
// @Produce		json
// @Success		200		{object}	SessionResponse
// @Failure		400		{object}	SessionResponse
// @Failure		404		{object}	SessionResponse
// @Param			id		path		URIID			true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			fields	body		session.Fields	true	"Receipt fields"
// @Router			/v1/sessions/{id} [patch]
func UpdateSessionFields(c *gin.Context) {
	s, ok := sessionFromURI(c)
	if !ok {
		return
	}

	// Decode over the current fields so that omitted values are kept
	fields := s.Fields()
	err := httputil.BindData(c, &fields)
	if err != nil {
		sessionError(c, err)
		return
	}

	if err := s.UpdateFields(fields); err != nil {
		sessionError(c, err)
		return
	}

	respondSession(c, s, http.StatusOK)
}

// @Summary		Delete session
// @Description	Discards a capture session. Nothing is persisted.
// @Tags			Sessions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id} [delete]
func DeleteSession(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	if !sessions.delete(uri.ID.UUID) {
		c.JSON(http.StatusNotFound, httpError{
			Error: errSessionNotFound.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// @Summary		Scan receipt
// @Description	Sends a receipt image to the scanning service and fills the session fields with the result. On success the session moves to review.
// @Tags			Sessions
// @Accept			multipart/form-data
// @Produce		json
// @Success		200		{object}	SessionResponse
// @Failure		400		{object}	SessionResponse
// @Failure		404		{object}	SessionResponse
// @Failure		502		{object}	SessionResponse
// @Param			id		path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			file	formData	file	true	"Receipt image"
// @Router			/v1/sessions/{id}/scan [post]
func ScanReceipt(c *gin.Context) {
	s, ok := sessionFromURI(c)
	if !ok {
		return
	}

	if scanner == nil {
		sessionError(c, errScanningNotConfigured)
		return
	}

	image, err := uploadedImage(c)
	if err != nil {
		sessionError(c, err)
		return
	}

	if err := s.Scan(c.Request.Context(), scanner, image); err != nil {
		sessionError(c, err)
		return
	}

	respondSession(c, s, http.StatusOK)
}

// uploadedImage reads the receipt image from the "file" form part.
func uploadedImage(c *gin.Context) ([]byte, error) {
	formFile, err := c.FormFile("file")
	if formFile == nil || err != nil {
		return nil, errNoImagePost
	}

	f, err := formFile.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// @Summary		Cancel scan
// @Description	Discards the result of any in-flight scan and moves the session back to capture
// @Tags			Sessions
// @Produce		json
// @Success		200	{object}	SessionResponse
// @Failure		400	{object}	SessionResponse
// @Failure		404	{object}	SessionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/cancel [post]
func CancelScan(c *gin.Context) {
	s, ok := sessionFromURI(c)
	if !ok {
		return
	}

	s.Cancel()
	respondSession(c, s, http.StatusOK)
}

// @Summary		Enter manually
// @Description	Moves the session to manual entry, keeping already entered fields
// @Tags			Sessions
// @Produce		json
// @Success		200	{object}	SessionResponse
// @Failure		400	{object}	SessionResponse
// @Failure		404	{object}	SessionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/manual [post]
func EnterSessionManually(c *gin.Context) {
	s, ok := sessionFromURI(c)
	if !ok {
		return
	}

	if err := s.EnterManually(); err != nil {
		sessionError(c, err)
		return
	}

	respondSession(c, s, http.StatusOK)
}

// @Summary		Use single work order
// @Description	Allocates the full receipt total to one work order
// @Tags			Sessions
// @Accept			json
// @Produce		json
// @Success		200		{object}	SessionResponse
// @Failure		400		{object}	SessionResponse
// @Failure		404		{object}	SessionResponse
// @Param			id		path		URIID					true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			request	body		SessionSingleRequest	true	"Work order"
// @Router			/v1/sessions/{id}/single [post]
func UseSingleWorkOrder(c *gin.Context) {
	s, ok := sessionFromURI(c)
	if !ok {
		return
	}

	var request SessionSingleRequest
	if err := httputil.BindData(c, &request); err != nil {
		sessionError(c, err)
		return
	}

	if err := s.UseSingleWorkOrder(request.WorkOrderID); err != nil {
		sessionError(c, err)
		return
	}

	respondSession(c, s, http.StatusOK)
}

// @Summary		Use split mode
// @Description	Switches the session to split allocation, existing lines are kept
// @Tags			Sessions
// @Produce		json
// @Success		200	{object}	SessionResponse
// @Failure		400	{object}	SessionResponse
// @Failure		404	{object}	SessionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/split [post]
func UseSplit(c *gin.Context) {
	s, ok := sessionFromURI(c)
	if !ok {
		return
	}

	if err := s.UseSplit(); err != nil {
		sessionError(c, err)
		return
	}

	respondSession(c, s, http.StatusOK)
}

// @Summary		Set allocations
// @Description	Replaces the allocation lines of the session. The balance gate is only enforced on submit.
// @Tags			Sessions
// @Accept			json
// @Produce		json
// @Success		200		{object}	SessionResponse
// @Failure		400		{object}	SessionResponse
// @Failure		404		{object}	SessionResponse
// @Param			id		path		URIID						true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			request	body		SessionAllocationsRequest	true	"Allocations"
// @Router			/v1/sessions/{id}/allocations [post]
func SetSessionAllocations(c *gin.Context) {
	s, ok := sessionFromURI(c)
	if !ok {
		return
	}

	var request SessionAllocationsRequest
	if err := httputil.BindData(c, &request); err != nil {
		sessionError(c, err)
		return
	}

	if err := s.SetLines(request.Allocations); err != nil {
		sessionError(c, err)
		return
	}

	respondSession(c, s, http.StatusOK)
}

// @Summary		Session suggestions
// @Description	Returns ranked allocation suggestions for the current session fields
// @Tags			Sessions
// @Produce		json
// @Success		200	{object}	SuggestionListResponse
// @Failure		400	{object}	SuggestionListResponse
// @Failure		404	{object}	SuggestionListResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/suggestions [get]
func GetSessionSuggestions(c *gin.Context) {
	s, ok := sessionFromURI(c)
	if !ok {
		return
	}

	data := s.Suggest(suggestions.New())
	c.JSON(http.StatusOK, SuggestionListResponse{Data: data})
}

// @Summary		Apply suggestion
// @Description	Replaces the allocation lines with the ones a suggestion proposes. Notes of kept work orders are preserved.
// @Tags			Sessions
// @Accept			json
// @Produce		json
// @Success		200			{object}	SessionResponse
// @Failure		400			{object}	SessionResponse
// @Failure		404			{object}	SessionResponse
// @Param			id			path		URIID					true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			suggestion	body		suggestions.Suggestion	true	"Suggestion to apply"
// @Router			/v1/sessions/{id}/suggestions [post]
func ApplySessionSuggestion(c *gin.Context) {
	s, ok := sessionFromURI(c)
	if !ok {
		return
	}

	var suggestion suggestions.Suggestion
	if err := httputil.BindData(c, &suggestion); err != nil {
		sessionError(c, err)
		return
	}

	if err := s.ApplySuggestion(suggestion); err != nil {
		sessionError(c, err)
		return
	}

	respondSession(c, s, http.StatusOK)
}

// @Summary		Refresh work orders
// @Description	Reloads the work order directory. Allocations referencing removed work orders are dropped.
// @Tags			Sessions
// @Produce		json
// @Success		200	{object}	SessionResponse
// @Failure		400	{object}	SessionResponse
// @Failure		404	{object}	SessionResponse
// @Failure		500	{object}	SessionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/work-orders [post]
func RefreshSessionWorkOrders(c *gin.Context) {
	s, ok := sessionFromURI(c)
	if !ok {
		return
	}

	directory, err := capture.WorkOrders(models.DB)
	if err != nil {
		sessionError(c, err)
		return
	}

	s.RefreshWorkOrders(directory)
	respondSession(c, s, http.StatusOK)
}

// @Summary		Submit session
// @Description	Persists the session as a submitted receipt with its allocations. The allocations have to add up to the receipt total within the tolerance of 0.01.
// @Tags			Sessions
// @Produce		json
// @Success		200	{object}	SessionResponse
// @Failure		400	{object}	SessionResponse
// @Failure		404	{object}	SessionResponse
// @Failure		500	{object}	SessionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sessions/{id}/submit [post]
func SubmitSession(c *gin.Context) {
	s, ok := sessionFromURI(c)
	if !ok {
		return
	}

	if err := s.Submit(c.Request.Context(), capture.Submitter{DB: models.DB}); err != nil {
		sessionError(c, err)
		return
	}

	respondSession(c, s, http.StatusOK)
}
