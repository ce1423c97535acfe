package v1_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	v1 "github.com/receiptdesk/backend/internal/controllers/v1"
	"github.com/receiptdesk/backend/internal/suggestions"
	"github.com/receiptdesk/backend/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *TestSuiteStandard) TestSuggestionsOptions() {
	r := test.Request(suite.T(), http.MethodOptions, "http://example.com/v1/suggestions", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)
	assert.Equal(suite.T(), "OPTIONS, POST", r.Header().Get("allow"))
}

func (suite *TestSuiteStandard) TestSuggestionsRanked() {
	_ = createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Number: "WO-0001", Title: "HVAC repair"})
	_ = createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Number: "WO-0002", Title: "Painting"})

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/suggestions", v1.SuggestionRequest{
		Total:  decimal.RequireFromString("100.00"),
		Vendor: "Home Depot",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.SuggestionListResponse
	test.DecodeResponse(suite.T(), &r, &response)

	// Even split ranks first, the vendor and recency rules follow
	require.NotEmpty(suite.T(), response.Data)
	assert.Equal(suite.T(), suggestions.KindEvenSplit, response.Data[0].Kind)
	assert.InDelta(suite.T(), 0.90, response.Data[0].Confidence, 0.001)

	for i := 1; i < len(response.Data); i++ {
		assert.LessOrEqual(suite.T(), response.Data[i].Confidence, response.Data[i-1].Confidence)
	}

	// Every suggestion adds up to the receipt total
	for _, s := range response.Data {
		sum := decimal.Zero
		for _, line := range s.Lines {
			sum = sum.Add(line.Amount)
		}
		assert.True(suite.T(), sum.Equal(decimal.RequireFromString("100.00")), "suggestion %s does not add up: %s", s.Kind, sum)
	}
}

func (suite *TestSuiteStandard) TestSuggestionsExplicitWorkOrders() {
	first := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Number: "WO-0001", Title: "Painting"})
	second := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Number: "WO-0002", Title: "Drywall"})
	_ = createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Number: "WO-0003", Title: "Roofing"})

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/suggestions", v1.SuggestionRequest{
		Total:        decimal.RequireFromString("100.00"),
		WorkOrderIDs: []uuid.UUID{first.Data.ID, second.Data.ID},
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.SuggestionListResponse
	test.DecodeResponse(suite.T(), &r, &response)

	require.NotEmpty(suite.T(), response.Data)
	require.Len(suite.T(), response.Data[0].Lines, 2)
	assert.Equal(suite.T(), first.Data.ID, response.Data[0].Lines[0].WorkOrderID)
	assert.Equal(suite.T(), second.Data.ID, response.Data[0].Lines[1].WorkOrderID)
}

func (suite *TestSuiteStandard) TestSuggestionsExcludesArchived() {
	_ = createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Number: "WO-0001", Title: "Painting"})
	_ = createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Number: "WO-0002", Title: "Drywall"})
	archived := createTestWorkOrder(suite.T(), v1.WorkOrderEditable{Number: "WO-0003", Title: "Old roof", Archived: true})

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/suggestions", v1.SuggestionRequest{
		Total: decimal.RequireFromString("100.00"),
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.SuggestionListResponse
	test.DecodeResponse(suite.T(), &r, &response)

	require.NotEmpty(suite.T(), response.Data)
	for _, line := range response.Data[0].Lines {
		assert.NotEqual(suite.T(), archived.Data.ID, line.WorkOrderID)
	}
}

func (suite *TestSuiteStandard) TestSuggestionsEmpty() {
	tests := []struct {
		name    string
		request v1.SuggestionRequest
	}{
		{"Zero total", v1.SuggestionRequest{Total: decimal.Zero}},
		{"No work orders", v1.SuggestionRequest{Total: decimal.RequireFromString("100.00")}},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, "http://example.com/v1/suggestions", tt.request)
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response v1.SuggestionListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Empty(t, response.Data)
		})
	}
}

func (suite *TestSuiteStandard) TestSuggestionsUnknownWorkOrder() {
	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/suggestions", v1.SuggestionRequest{
		Total:        decimal.RequireFromString("100.00"),
		WorkOrderIDs: []uuid.UUID{uuid.New()},
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)

	var response v1.SuggestionListResponse
	test.DecodeResponse(suite.T(), &r, &response)
	assert.NotNil(suite.T(), response.Error)
}
