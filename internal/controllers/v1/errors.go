package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/receiptdesk/backend/internal/models"
	"github.com/receiptdesk/backend/internal/ocr"
)

type httpError struct {
	Error string `json:"error" example:"An ID specified in the query string was not a valid UUID"`
}

// status returns the appropriate status for a database error
func status(err error) int {
	if errors.Is(err, models.ErrGeneral) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, models.ErrResourceNotFound) {
		return http.StatusNotFound
	}

	return http.StatusBadRequest
}

// sessionStatus maps capture session errors. An unreachable scanning
// service is the only upstream failure, everything else follows the
// database error mapping.
func sessionStatus(err error) int {
	if errors.Is(err, ocr.ErrUnavailable) {
		return http.StatusBadGateway
	}

	return status(err)
}

// Submit errors
var (
	errReceiptNotBalanced = errors.New("the allocations do not add up to the receipt total")
	errNoAllocations      = errors.New("at least one allocation is required to submit a receipt")
)

// Capture session errors
var (
	errSessionNotFound       = fmt.Errorf("%w capture session matching your query", models.ErrResourceNotFound)
	errScanningNotConfigured = errors.New("receipt scanning is not configured on this server")
	errNoImagePost           = errors.New("you must send a receipt image to this endpoint")
)
