package v1

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/receiptdesk/backend/internal/allocation"
	"github.com/receiptdesk/backend/internal/models"
	"github.com/receiptdesk/backend/internal/ocr"
	"github.com/receiptdesk/backend/internal/session"
	"github.com/receiptdesk/backend/internal/suggestions"
)

// sessionStore holds the active capture sessions. Sessions live in
// memory only, a restart discards them.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session.Session
}

var sessions = &sessionStore{sessions: make(map[uuid.UUID]*session.Session)}

func (store *sessionStore) add(s *session.Session) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.sessions[s.ID()] = s
}

func (store *sessionStore) get(id uuid.UUID) (*session.Session, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	s, ok := store.sessions[id]
	return s, ok
}

func (store *sessionStore) delete(id uuid.UUID) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	_, ok := store.sessions[id]
	delete(store.sessions, id)
	return ok
}

// scanner is the configured receipt scanning service. Scanning is
// optional, without a scanner sessions go through manual entry.
var scanner ocr.Scanner

// SetScanner configures the receipt scanning service used by capture
// sessions.
func SetScanner(s ocr.Scanner) {
	scanner = s
}

type SessionLinks struct {
	Self        string `json:"self" example:"https://example.com/api/v1/sessions/d1371b2c-c2f0-4471-89b3-b09bc5195b0c"`                    // The session itself
	Scan        string `json:"scan" example:"https://example.com/api/v1/sessions/d1371b2c-c2f0-4471-89b3-b09bc5195b0c/scan"`               // Endpoint to scan a receipt image
	Allocations string `json:"allocations" example:"https://example.com/api/v1/sessions/d1371b2c-c2f0-4471-89b3-b09bc5195b0c/allocations"` // Endpoint to replace the allocations
	Suggestions string `json:"suggestions" example:"https://example.com/api/v1/sessions/d1371b2c-c2f0-4471-89b3-b09bc5195b0c/suggestions"` // Endpoint for allocation suggestions
	Submit      string `json:"submit" example:"https://example.com/api/v1/sessions/d1371b2c-c2f0-4471-89b3-b09bc5195b0c/submit"`           // Endpoint to submit the session
}

// CaptureSession is the API representation of a receipt capture
// session.
type CaptureSession struct {
	ID              uuid.UUID               `json:"id" example:"d1371b2c-c2f0-4471-89b3-b09bc5195b0c"` // UUID of the session
	State           session.State           `json:"state" example:"review"`                            // Lifecycle state
	Mode            session.Mode            `json:"mode" example:"split"`                              // Allocation mode
	Fields          session.Fields          `json:"fields"`                                            // The receipt data entered so far
	Confidence      *ocr.Confidence         `json:"confidence"`                                        // Per-field scan confidence, null for manually entered data
	Allocations     []allocation.Line       `json:"allocations"`                                       // Current allocation lines
	AllocationState allocation.State        `json:"allocationState"`                                   // Balance of the allocations against the receipt total
	WorkOrders      []suggestions.WorkOrder `json:"workOrders"`                                        // Work orders available for allocation
	Links           SessionLinks            `json:"links"`
}

func newCaptureSession(c *gin.Context, s *session.Session) CaptureSession {
	url := c.GetString(string(models.DBContextURL))
	id := s.ID()

	lines := s.Lines()
	if lines == nil {
		lines = make([]allocation.Line, 0)
	}

	return CaptureSession{
		ID:              id,
		State:           s.State(),
		Mode:            s.Mode(),
		Fields:          s.Fields(),
		Confidence:      s.Confidence(),
		Allocations:     lines,
		AllocationState: s.AllocationState(),
		WorkOrders:      s.WorkOrders(),
		Links: SessionLinks{
			Self:        fmt.Sprintf("%s/v1/sessions/%s", url, id),
			Scan:        fmt.Sprintf("%s/v1/sessions/%s/scan", url, id),
			Allocations: fmt.Sprintf("%s/v1/sessions/%s/allocations", url, id),
			Suggestions: fmt.Sprintf("%s/v1/sessions/%s/suggestions", url, id),
			Submit:      fmt.Sprintf("%s/v1/sessions/%s/submit", url, id),
		},
	}
}

type SessionResponse struct {
	Data  *CaptureSession `json:"data"`                                                          // Data for the session
	Error *string         `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

// SessionAllocationsRequest is the request body for replacing the
// allocations of a session.
type SessionAllocationsRequest struct {
	Allocations []allocation.Line `json:"allocations" binding:"required"` // Allocation lines. Over- and under-allocation is allowed until submit.
}

// SessionSingleRequest is the request body for switching a session to
// single work order mode.
type SessionSingleRequest struct {
	WorkOrderID uuid.UUID `json:"workOrderId" binding:"required" example:"65392deb-5e92-4268-b114-297faad6cdce"` // Work order that gets the full receipt total
}
