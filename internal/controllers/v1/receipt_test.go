package v1_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/receiptdesk/backend/internal/allocation"
	v1 "github.com/receiptdesk/backend/internal/controllers/v1"
	"github.com/receiptdesk/backend/internal/models"
	"github.com/receiptdesk/backend/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestReceipt(t *testing.T, r v1.ReceiptEditable, expectedStatus ...int) v1.ReceiptResponse {
	if r.VendorName == "" {
		r.VendorName = "Home Depot"
	}

	// Default to 201 Created as expected status
	if len(expectedStatus) == 0 {
		expectedStatus = append(expectedStatus, http.StatusCreated)
	}

	body := []v1.ReceiptEditable{r}

	recorder := test.Request(t, http.MethodPost, "http://example.com/v1/receipts", body)
	test.AssertHTTPStatus(t, &recorder, expectedStatus...)

	var receipt v1.ReceiptCreateResponse
	test.DecodeResponse(t, &recorder, &receipt)

	if recorder.Code == http.StatusCreated {
		return receipt.Data[0]
	}

	return v1.ReceiptResponse{}
}

func submitTestReceipt(t *testing.T, receipt v1.ReceiptResponse, lines []allocation.Line, expectedStatus ...int) v1.ReceiptResponse {
	if len(expectedStatus) == 0 {
		expectedStatus = append(expectedStatus, http.StatusOK)
	}

	r := test.Request(t, http.MethodPost, receipt.Data.Links.Submit, v1.ReceiptSubmit{Allocations: lines})
	test.AssertHTTPStatus(t, &r, expectedStatus...)

	var response v1.ReceiptResponse
	test.DecodeResponse(t, &r, &response)

	return response
}

// TestReceiptsOptions verifies that OPTIONS requests are handled correctly.
func (suite *TestSuiteStandard) TestReceiptsOptions() {
	tests := []struct {
		name   string
		id     string // path at the receipt endpoint to test
		status int    // Expected HTTP status code
	}{
		{"No receipt with this ID", uuid.New().String(), http.StatusNotFound},
		{"Not a valid UUID", "NotParseableAsUUID", http.StatusBadRequest},
		{"Receipt exists", createTestReceipt(suite.T(), v1.ReceiptEditable{}).Data.ID.String(), http.StatusNoContent},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			path := fmt.Sprintf("%s/%s", "http://example.com/v1/receipts", tt.id)
			r := test.Request(t, http.MethodOptions, path, "")
			test.AssertHTTPStatus(t, &r, tt.status)

			if tt.status == http.StatusNoContent {
				assert.Equal(t, "OPTIONS, GET, PATCH, DELETE", r.Header().Get("allow"))
			}
		})
	}
}

func (suite *TestSuiteStandard) TestReceiptsCreate() {
	receipt := createTestReceipt(suite.T(), v1.ReceiptEditable{
		VendorName: "Home Depot",
		Amount:     decimal.RequireFromString("131.37"),
	})

	assert.Equal(suite.T(), "Home Depot", receipt.Data.VendorName)
	assert.False(suite.T(), receipt.Data.Submitted)
	assert.Empty(suite.T(), receipt.Data.Allocations)
	assert.Contains(suite.T(), receipt.Data.Links.Submit, "/submit")
}

func (suite *TestSuiteStandard) TestReceiptsCreateNegativeAmount() {
	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/receipts", []v1.ReceiptEditable{
		{VendorName: "Home Depot", Amount: decimal.RequireFromString("-1.00")},
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	var response v1.ReceiptCreateResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.Contains(suite.T(), *response.Data[0].Error, models.ErrAmountNegative.Error())
}

func (suite *TestSuiteStandard) TestReceiptsGetFiltered() {
	_ = createTestReceipt(suite.T(), v1.ReceiptEditable{VendorName: "Home Depot", Note: "Filters"})
	_ = createTestReceipt(suite.T(), v1.ReceiptEditable{VendorName: "Lowes"})
	_ = createTestReceipt(suite.T(), v1.ReceiptEditable{VendorName: "Ace Hardware", Description: "Paint"})

	tests := []struct {
		name  string
		query string
		count int
	}{
		{"All", "", 3},
		{"Vendor", "vendor=Home", 1},
		{"Search description", "search=Paint", 1},
		{"Not submitted", "submitted=false", 3},
		{"Submitted", "submitted=true", 0},
		{"Limit", "limit=1", 1},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/receipts?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response v1.ReceiptListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.count)
		})
	}
}

func (suite *TestSuiteStandard) TestReceiptsUpdate() {
	receipt := createTestReceipt(suite.T(), v1.ReceiptEditable{VendorName: "Home Depot"})

	r := test.Request(suite.T(), http.MethodPatch, receipt.Data.Links.Self, map[string]any{
		"note": "Reimbursed",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var updated v1.ReceiptResponse
	test.DecodeResponse(suite.T(), &r, &updated)
	assert.Equal(suite.T(), "Reimbursed", updated.Data.Note)
	assert.Equal(suite.T(), "Home Depot", updated.Data.VendorName)
}

func (suite *TestSuiteStandard) TestReceiptsSubmit() {
	first := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "HVAC repair"})
	second := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "Plumbing"})

	receipt := createTestReceipt(suite.T(), v1.ReceiptEditable{
		VendorName: "Home Depot",
		Amount:     decimal.RequireFromString("100.00"),
	})

	response := submitTestReceipt(suite.T(), receipt, []allocation.Line{
		{WorkOrderID: first.Data.ID, Amount: decimal.RequireFromString("60.00")},
		{WorkOrderID: second.Data.ID, Amount: decimal.RequireFromString("40.00"), Note: "Pipes"},
	})

	require.NotNil(suite.T(), response.Data)
	assert.True(suite.T(), response.Data.Submitted)
	require.Len(suite.T(), response.Data.Allocations, 2)
	assert.True(suite.T(), response.Data.Allocations[0].Amount.Equal(decimal.RequireFromString("60.00")))
	assert.Equal(suite.T(), "Pipes", response.Data.Allocations[1].Note)
}

func (suite *TestSuiteStandard) TestReceiptsSubmitErrors() {
	workOrder := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "HVAC repair"})

	tests := []struct {
		name   string
		amount string
		lines  []allocation.Line
		status int
	}{
		{
			"Unbalanced allocations",
			"100.00",
			[]allocation.Line{{WorkOrderID: workOrder.Data.ID, Amount: decimal.RequireFromString("90.00")}},
			http.StatusBadRequest,
		},
		{
			"No allocations",
			"100.00",
			[]allocation.Line{},
			http.StatusBadRequest,
		},
		{
			"Unknown work order",
			"100.00",
			[]allocation.Line{{WorkOrderID: uuid.New(), Amount: decimal.RequireFromString("100.00")}},
			http.StatusNotFound,
		},
		{
			"Duplicate work order",
			"100.00",
			[]allocation.Line{
				{WorkOrderID: workOrder.Data.ID, Amount: decimal.RequireFromString("50.00")},
				{WorkOrderID: workOrder.Data.ID, Amount: decimal.RequireFromString("50.00")},
			},
			http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			receipt := createTestReceipt(t, v1.ReceiptEditable{
				Amount: decimal.RequireFromString(tt.amount),
			})

			response := submitTestReceipt(t, receipt, tt.lines, tt.status)
			assert.NotNil(t, response.Error)

			// The receipt must stay open when the submission fails
			r := test.Request(t, http.MethodGet, receipt.Data.Links.Self, "")
			var unchanged v1.ReceiptResponse
			test.DecodeResponse(t, &r, &unchanged)
			assert.False(t, unchanged.Data.Submitted)
			assert.Empty(t, unchanged.Data.Allocations)
		})
	}
}

func (suite *TestSuiteStandard) TestReceiptsSubmittedReadOnly() {
	workOrder := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Title: "HVAC repair"})
	receipt := createTestReceipt(suite.T(), v1.ReceiptEditable{
		Amount: decimal.RequireFromString("50.00"),
	})

	_ = submitTestReceipt(suite.T(), receipt, []allocation.Line{
		{WorkOrderID: workOrder.Data.ID, Amount: decimal.RequireFromString("50.00")},
	})

	tests := []struct {
		name   string
		method string
		url    string
		body   any
	}{
		{"Resubmit", http.MethodPost, receipt.Data.Links.Submit, v1.ReceiptSubmit{Allocations: []allocation.Line{{WorkOrderID: workOrder.Data.ID, Amount: decimal.RequireFromString("50.00")}}}},
		{"Update", http.MethodPatch, receipt.Data.Links.Self, map[string]any{"note": "too late"}},
		{"Delete", http.MethodDelete, receipt.Data.Links.Self, ""},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, tt.method, tt.url, tt.body)
			test.AssertHTTPStatus(t, &r, http.StatusBadRequest)
			assert.Contains(t, r.Body.String(), models.ErrReceiptAlreadySubmitted.Error())
		})
	}
}
