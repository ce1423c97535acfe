package v1_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/receiptdesk/backend/internal/allocation"
	v1 "github.com/receiptdesk/backend/internal/controllers/v1"
	"github.com/receiptdesk/backend/internal/ocr"
	"github.com/receiptdesk/backend/internal/session"
	"github.com/receiptdesk/backend/internal/suggestions"
	"github.com/receiptdesk/backend/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSession(t *testing.T, expectedStatus ...int) v1.SessionResponse {
	if len(expectedStatus) == 0 {
		expectedStatus = append(expectedStatus, http.StatusCreated)
	}

	r := test.Request(t, http.MethodPost, "http://example.com/v1/sessions", "")
	test.AssertHTTPStatus(t, &r, expectedStatus...)

	var response v1.SessionResponse
	test.DecodeResponse(t, &r, &response)

	return response
}

// stubScanner returns a fixed result for every image.
type stubScanner struct {
	result ocr.Result
	err    error
}

func (s stubScanner) Scan(_ context.Context, _ []byte) (ocr.Result, error) {
	return s.result, s.err
}

// receiptImageUpload builds a multipart body with a receipt image in
// the "file" part.
func receiptImageUpload(t *testing.T) (*bytes.Buffer, map[string]string) {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "receipt.jpg")
	require.NoError(t, err)

	_, err = part.Write([]byte("not-actually-a-jpg"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &buf, map[string]string{"Content-Type": w.FormDataContentType()}
}

func (suite *TestSuiteStandard) TestSessionsOptions() {
	r := test.Request(suite.T(), http.MethodOptions, "http://example.com/v1/sessions", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)
	assert.Equal(suite.T(), "OPTIONS, POST", r.Header().Get("allow"))

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"No session with this ID", uuid.New().String(), http.StatusNotFound},
		{"Not a valid UUID", "NotParseableAsUUID", http.StatusBadRequest},
		{"Session exists", createTestSession(suite.T()).Data.ID.String(), http.StatusNoContent},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			path := fmt.Sprintf("%s/%s", "http://example.com/v1/sessions", tt.id)
			r := test.Request(t, http.MethodOptions, path, "")
			test.AssertHTTPStatus(t, &r, tt.status)

			if tt.status == http.StatusNoContent {
				assert.Equal(t, "OPTIONS, GET, PATCH, DELETE", r.Header().Get("allow"))
			}
		})
	}
}

func (suite *TestSuiteStandard) TestSessionsCreate() {
	_ = createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "HVAC repair"})
	archived := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "Old roof", Archived: true})

	s := createTestSession(suite.T())

	require.NotNil(suite.T(), s.Data)
	assert.Equal(suite.T(), session.StateCapture, s.Data.State)
	assert.Equal(suite.T(), session.ModeSplit, s.Data.Mode)
	assert.Empty(suite.T(), s.Data.Allocations)
	assert.Contains(suite.T(), s.Data.Links.Submit, "/submit")

	// Archived work orders are not offered for capture
	require.Len(suite.T(), s.Data.WorkOrders, 1)
	assert.NotEqual(suite.T(), archived.Data.ID, s.Data.WorkOrders[0].ID)
}

func (suite *TestSuiteStandard) TestSessionsGetUnknown() {
	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/sessions/%s", uuid.New()), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestSessionsManualFlow() {
	first := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "HVAC repair"})
	second := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "Plumbing"})

	s := createTestSession(suite.T())
	self := s.Data.Links.Self

	r := test.Request(suite.T(), http.MethodPost, self+"/manual", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPatch, self, session.Fields{
		Vendor: "Home Depot",
		Total:  decimal.RequireFromString("100.00"),
		Date:   time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC),
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	// A partial update keeps the fields that are not sent
	r = test.Request(suite.T(), http.MethodPatch, self, map[string]any{"note": "Boiler room"})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var patched v1.SessionResponse
	test.DecodeResponse(suite.T(), &r, &patched)
	assert.Equal(suite.T(), "Home Depot", patched.Data.Fields.Vendor)
	assert.Equal(suite.T(), "Boiler room", patched.Data.Fields.Note)

	r = test.Request(suite.T(), http.MethodPost, self+"/allocations", v1.SessionAllocationsRequest{
		Allocations: []allocation.Line{
			{WorkOrderID: first.Data.ID, Amount: decimal.RequireFromString("60.00")},
			{WorkOrderID: second.Data.ID, Amount: decimal.RequireFromString("40.00"), Note: "Pipes"},
		},
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var withLines v1.SessionResponse
	test.DecodeResponse(suite.T(), &r, &withLines)
	assert.True(suite.T(), withLines.Data.AllocationState.IsValid)

	r = test.Request(suite.T(), http.MethodPost, self+"/submit", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var submitted v1.SessionResponse
	test.DecodeResponse(suite.T(), &r, &submitted)
	assert.Equal(suite.T(), session.StateSubmitted, submitted.Data.State)

	// The receipt is persisted with its allocations
	r = test.Request(suite.T(), http.MethodGet, "http://example.com/v1/receipts?submitted=true", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var receipts v1.ReceiptListResponse
	test.DecodeResponse(suite.T(), &r, &receipts)
	require.Len(suite.T(), receipts.Data, 1)
	assert.Equal(suite.T(), "Home Depot", receipts.Data[0].VendorName)
	assert.True(suite.T(), receipts.Data[0].Submitted)
	require.Len(suite.T(), receipts.Data[0].Allocations, 2)
	assert.Equal(suite.T(), "Pipes", receipts.Data[0].Allocations[1].Note)
}

func (suite *TestSuiteStandard) TestSessionsSubmitErrors() {
	workOrder := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "HVAC repair"})

	tests := []struct {
		name    string
		prepare func(t *testing.T, self string)
		err     string
	}{
		{
			"Not ready in capture state",
			func(t *testing.T, self string) {},
			session.ErrNotReadyToSubmit.Error(),
		},
		{
			"No allocations",
			func(t *testing.T, self string) {
				r := test.Request(t, http.MethodPost, self+"/manual", "")
				test.AssertHTTPStatus(t, &r, http.StatusOK)

				r = test.Request(t, http.MethodPatch, self, session.Fields{Total: decimal.RequireFromString("100.00")})
				test.AssertHTTPStatus(t, &r, http.StatusOK)
			},
			session.ErrNoAllocations.Error(),
		},
		{
			"Unbalanced allocations",
			func(t *testing.T, self string) {
				r := test.Request(t, http.MethodPost, self+"/manual", "")
				test.AssertHTTPStatus(t, &r, http.StatusOK)

				r = test.Request(t, http.MethodPatch, self, session.Fields{Total: decimal.RequireFromString("100.00")})
				test.AssertHTTPStatus(t, &r, http.StatusOK)

				r = test.Request(t, http.MethodPost, self+"/allocations", v1.SessionAllocationsRequest{
					Allocations: []allocation.Line{
						{WorkOrderID: workOrder.Data.ID, Amount: decimal.RequireFromString("90.00")},
					},
				})
				test.AssertHTTPStatus(t, &r, http.StatusOK)
			},
			session.ErrNotBalanced.Error(),
		},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			s := createTestSession(t)
			tt.prepare(t, s.Data.Links.Self)

			r := test.Request(t, http.MethodPost, s.Data.Links.Submit, "")
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)

			var response v1.SessionResponse
			test.DecodeResponse(t, &r, &response)
			require.NotNil(t, response.Error)
			assert.Contains(t, *response.Error, tt.err)

			// A refused submission must not persist anything
			r = test.Request(t, http.MethodGet, "http://example.com/v1/receipts", "")
			var receipts v1.ReceiptListResponse
			test.DecodeResponse(t, &r, &receipts)
			assert.Empty(t, receipts.Data)
		})
	}
}

func (suite *TestSuiteStandard) TestSessionsSingleMode() {
	first := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "HVAC repair"})
	second := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "Plumbing"})

	s := createTestSession(suite.T())
	self := s.Data.Links.Self

	r := test.Request(suite.T(), http.MethodPatch, self, session.Fields{Total: decimal.RequireFromString("80.00")})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	// A note set in split mode survives the switch to single mode
	r = test.Request(suite.T(), http.MethodPost, self+"/allocations", v1.SessionAllocationsRequest{
		Allocations: []allocation.Line{
			{WorkOrderID: first.Data.ID, Amount: decimal.RequireFromString("50.00"), Note: "Filters"},
			{WorkOrderID: second.Data.ID, Amount: decimal.RequireFromString("30.00")},
		},
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPost, self+"/single", v1.SessionSingleRequest{WorkOrderID: first.Data.ID})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.SessionResponse
	test.DecodeResponse(suite.T(), &r, &response)

	assert.Equal(suite.T(), session.ModeSingle, response.Data.Mode)
	require.Len(suite.T(), response.Data.Allocations, 1)
	assert.True(suite.T(), response.Data.Allocations[0].Amount.Equal(decimal.RequireFromString("80.00")))
	assert.Equal(suite.T(), "Filters", response.Data.Allocations[0].Note)
}

func (suite *TestSuiteStandard) TestSessionsAllocationsUnknownWorkOrder() {
	s := createTestSession(suite.T())

	r := test.Request(suite.T(), http.MethodPost, s.Data.Links.Allocations, v1.SessionAllocationsRequest{
		Allocations: []allocation.Line{
			{WorkOrderID: uuid.New(), Amount: decimal.RequireFromString("10.00")},
		},
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	var response v1.SessionResponse
	test.DecodeResponse(suite.T(), &r, &response)
	require.NotNil(suite.T(), response.Error)
	assert.Contains(suite.T(), *response.Error, session.ErrUnknownWorkOrder.Error())
}

func (suite *TestSuiteStandard) TestSessionsScanNotConfigured() {
	s := createTestSession(suite.T())

	body, headers := receiptImageUpload(suite.T())
	r := test.Request(suite.T(), http.MethodPost, s.Data.Links.Scan, body, headers)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	var response v1.SessionResponse
	test.DecodeResponse(suite.T(), &r, &response)
	require.NotNil(suite.T(), response.Error)
}

func (suite *TestSuiteStandard) TestSessionsScan() {
	v1.SetScanner(stubScanner{
		result: ocr.Result{
			Vendor:     "Home Depot",
			Total:      decimal.RequireFromString("131.37"),
			Date:       time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC),
			Confidence: ocr.Confidence{Vendor: 0.95, Total: 0.98, Date: 0.9},
		},
	})
	defer v1.SetScanner(nil)

	s := createTestSession(suite.T())

	body, headers := receiptImageUpload(suite.T())
	r := test.Request(suite.T(), http.MethodPost, s.Data.Links.Scan, body, headers)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.SessionResponse
	test.DecodeResponse(suite.T(), &r, &response)

	assert.Equal(suite.T(), session.StateReview, response.Data.State)
	assert.Equal(suite.T(), "Home Depot", response.Data.Fields.Vendor)
	require.NotNil(suite.T(), response.Data.Confidence)
	assert.InDelta(suite.T(), 0.98, response.Data.Confidence.Total, 0.001)
}

func (suite *TestSuiteStandard) TestSessionsScanUnavailable() {
	v1.SetScanner(stubScanner{err: ocr.ErrUnavailable})
	defer v1.SetScanner(nil)

	s := createTestSession(suite.T())

	body, headers := receiptImageUpload(suite.T())
	r := test.Request(suite.T(), http.MethodPost, s.Data.Links.Scan, body, headers)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadGateway)

	// A failed scan falls back to capture, entry can continue manually
	r = test.Request(suite.T(), http.MethodGet, s.Data.Links.Self, "")
	var response v1.SessionResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Equal(suite.T(), session.StateCapture, response.Data.State)
}

func (suite *TestSuiteStandard) TestSessionsSuggestions() {
	_ = createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "HVAC repair"})
	_ = createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "Painting"})

	s := createTestSession(suite.T())
	self := s.Data.Links.Self

	r := test.Request(suite.T(), http.MethodPatch, self, session.Fields{Total: decimal.RequireFromString("100.00")})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodGet, s.Data.Links.Suggestions, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var list v1.SuggestionListResponse
	test.DecodeResponse(suite.T(), &r, &list)
	require.NotEmpty(suite.T(), list.Data)
	assert.Equal(suite.T(), suggestions.KindEvenSplit, list.Data[0].Kind)

	// Applying the top suggestion balances the session
	r = test.Request(suite.T(), http.MethodPost, s.Data.Links.Suggestions, list.Data[0])
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var applied v1.SessionResponse
	test.DecodeResponse(suite.T(), &r, &applied)
	assert.True(suite.T(), applied.Data.AllocationState.IsValid)
	assert.Len(suite.T(), applied.Data.Allocations, 2)
}

func (suite *TestSuiteStandard) TestSessionsRefreshDropsRemovedWorkOrders() {
	first := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "HVAC repair"})
	second := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "Plumbing"})

	s := createTestSession(suite.T())
	self := s.Data.Links.Self

	r := test.Request(suite.T(), http.MethodPatch, self, session.Fields{Total: decimal.RequireFromString("100.00")})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPost, self+"/allocations", v1.SessionAllocationsRequest{
		Allocations: []allocation.Line{
			{WorkOrderID: first.Data.ID, Amount: decimal.RequireFromString("60.00")},
			{WorkOrderID: second.Data.ID, Amount: decimal.RequireFromString("40.00")},
		},
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	// Archive one work order, then refresh the directory
	r = test.Request(suite.T(), http.MethodPatch, second.Data.Links.Self, map[string]any{"archived": true})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	r = test.Request(suite.T(), http.MethodPost, self+"/work-orders", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.SessionResponse
	test.DecodeResponse(suite.T(), &r, &response)

	require.Len(suite.T(), response.Data.WorkOrders, 1)
	require.Len(suite.T(), response.Data.Allocations, 1)
	assert.Equal(suite.T(), first.Data.ID, response.Data.Allocations[0].WorkOrderID)
}

func (suite *TestSuiteStandard) TestSessionsDelete() {
	s := createTestSession(suite.T())

	r := test.Request(suite.T(), http.MethodDelete, s.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodGet, s.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}
