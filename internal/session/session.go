// Package session implements the receipt capture flow: a scanned or
// manually entered receipt is reviewed, its amount is allocated to work
// orders and the result is handed off to a persistence collaborator.
//
// The state machine is
//
//	capture → processing → review ⇄ manual-entry → submitted
//
// where processing represents the scan call being in flight. A session
// serializes all mutations with an internal lock; one session belongs
// to one receipt at a time.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/receiptdesk/backend/internal/allocation"
	"github.com/receiptdesk/backend/internal/ocr"
	"github.com/receiptdesk/backend/internal/suggestions"
	"github.com/shopspring/decimal"
)

// State is the lifecycle state of a capture session.
type State string

const (
	StateCapture     State = "capture"
	StateProcessing  State = "processing"
	StateReview      State = "review"
	StateManualEntry State = "manual-entry"
	StateSubmitted   State = "submitted"
)

// Mode determines how the receipt amount is allocated.
type Mode string

const (
	// ModeSingle allocates the full amount to one work order.
	ModeSingle Mode = "single"

	// ModeSplit distributes the amount across multiple work orders.
	ModeSplit Mode = "split"
)

// Fields holds the editable receipt data of a session.
type Fields struct {
	Vendor      string          `json:"vendor" example:"Home Depot"`
	Total       decimal.Decimal `json:"total" example:"131.37"`
	Date        time.Time       `json:"date" example:"2024-05-17T00:00:00Z"`
	Description string          `json:"description,omitempty" example:"Parts for the boiler room"`
	Note        string          `json:"note,omitempty"`
}

// Submission is what a finalized session hands to the persistence
// collaborator.
type Submission struct {
	VendorName   string
	Amount       decimal.Decimal
	ReceiptDate  time.Time
	Description  string
	Note         string
	Allocations  []allocation.Line
	ReceiptImage []byte
}

// Submitter persists a finalized submission. Retry and backoff policy
// belongs to the implementation, not to the session.
type Submitter interface {
	Submit(ctx context.Context, submission Submission) error
}

// Session is the flow controller for one receipt.
type Session struct {
	mu sync.Mutex

	id    uuid.UUID
	state State
	mode  Mode

	fields     Fields
	confidence *ocr.Confidence
	image      []byte

	lines     []allocation.Line
	directory map[uuid.UUID]suggestions.WorkOrder
	order     []uuid.UUID

	calc allocation.Calculator

	// Incremented on every scan and cancellation so that results of
	// superseded calls are discarded on arrival.
	scanGeneration uint64
}

// New creates a session in the capture state with the given work order
// directory.
func New(workOrders []suggestions.WorkOrder) *Session {
	s := &Session{
		id:    uuid.New(),
		state: StateCapture,
		mode:  ModeSplit,
		calc:  allocation.New(),
	}
	s.setDirectory(workOrders)

	return s
}

// ID returns the session ID.
func (s *Session) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mode returns the current allocation mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Fields returns the current receipt fields.
func (s *Session) Fields() Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields
}

// Confidence returns the per-field confidence scores of the last scan,
// or nil for manually entered data.
func (s *Session) Confidence() *ocr.Confidence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confidence
}

// Lines returns a copy of the current allocation lines.
func (s *Session) Lines() []allocation.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLines()
}

// WorkOrders returns the directory in its stable order.
func (s *Session) WorkOrders() []suggestions.WorkOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]suggestions.WorkOrder, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.directory[id])
	}

	return out
}

// AllocationState derives the allocation state for the current lines
// and receipt total.
func (s *Session) AllocationState() allocation.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calc.State(s.lines, s.fields.Total)
}

// Scan sends the image to the scanner and applies the result.
//
// On success the session moves to review and the recognized fields
// overwrite the current ones. A scan that fails moves the session back
// to capture and returns the wrapped scanner error; already entered
// fields are preserved. If the scan is cancelled or superseded by a
// newer scan while in flight, its result is discarded and
// ErrScanSuperseded is returned.
func (s *Session) Scan(ctx context.Context, scanner ocr.Scanner, image []byte) error {
	s.mu.Lock()
	if s.state == StateSubmitted {
		s.mu.Unlock()
		return ErrNotEditable
	}

	s.scanGeneration++
	generation := s.scanGeneration
	s.state = StateProcessing
	s.mu.Unlock()

	result, err := scanner.Scan(ctx, image)

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.scanGeneration {
		return ErrScanSuperseded
	}

	if err != nil {
		s.state = StateCapture
		return fmt.Errorf("scanning the receipt failed: %w", err)
	}

	s.fields.Vendor = result.Vendor
	s.fields.Total = result.Total
	s.fields.Date = result.Date
	s.confidence = &result.Confidence
	s.image = image
	s.state = StateReview

	return nil
}

// Cancel discards the result of any in-flight scan. If the session is
// currently processing it falls back to the capture state.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scanGeneration++
	if s.state == StateProcessing {
		s.state = StateCapture
	}
}

// EnterManually transitions to manual entry, preserving any already
// entered field values. Manually entered data carries no confidence
// scores.
func (s *Session) EnterManually() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitted {
		return ErrNotEditable
	}

	s.scanGeneration++
	s.confidence = nil
	s.state = StateManualEntry

	return nil
}

// UpdateFields replaces the receipt fields.
func (s *Session) UpdateFields(fields Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editable() {
		return ErrNotEditable
	}

	if fields.Total.IsNegative() {
		return allocation.ErrAmountNegative
	}

	s.fields = fields

	return nil
}

// UseSingleWorkOrder switches to single mode and allocates the full
// receipt total to the given work order. A note already attached to an
// allocation for the same work order is preserved.
func (s *Session) UseSingleWorkOrder(workOrderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editable() {
		return ErrNotEditable
	}

	if _, ok := s.directory[workOrderID]; !ok {
		return ErrUnknownWorkOrder
	}

	s.mode = ModeSingle
	s.lines = []allocation.Line{{
		WorkOrderID: workOrderID,
		Amount:      s.fields.Total,
		Note:        s.noteFor(workOrderID),
	}}

	return nil
}

// UseSplit switches to split mode. Existing allocation lines are kept.
func (s *Session) UseSplit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editable() {
		return ErrNotEditable
	}

	s.mode = ModeSplit

	return nil
}

// SetLines replaces the allocation lines.
//
// Transient over- and under-allocation is allowed, the hard gate is
// only enforced on Submit. Lines must be free of duplicates and
// negative amounts and may only reference available work orders.
func (s *Session) SetLines(lines []allocation.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editable() {
		return ErrNotEditable
	}

	if err := s.calc.Validate(lines); err != nil {
		return err
	}

	for _, line := range lines {
		if _, ok := s.directory[line.WorkOrderID]; !ok {
			return ErrUnknownWorkOrder
		}
	}

	s.lines = make([]allocation.Line, len(lines))
	copy(s.lines, lines)

	return nil
}

// Suggest generates candidate allocations for the current receipt from
// the session's work order directory.
func (s *Session) Suggest(engine suggestions.Engine) []suggestions.Suggestion {
	s.mu.Lock()
	workOrders := make([]suggestions.WorkOrder, 0, len(s.order))
	for _, id := range s.order {
		workOrders = append(workOrders, s.directory[id])
	}
	total := s.fields.Total
	vendor := s.fields.Vendor
	s.mu.Unlock()

	return engine.Suggest(workOrders, total, vendor)
}

// ApplySuggestion replaces the allocation lines with the ones a
// suggestion proposes. Notes of existing allocations are preserved for
// work orders that stay in the set.
func (s *Session) ApplySuggestion(suggestion suggestions.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editable() {
		return ErrNotEditable
	}

	lines := make([]allocation.Line, 0, len(suggestion.Lines))
	for _, proposed := range suggestion.Lines {
		if _, ok := s.directory[proposed.WorkOrderID]; !ok {
			return ErrUnknownWorkOrder
		}

		lines = append(lines, allocation.Line{
			WorkOrderID: proposed.WorkOrderID,
			Amount:      proposed.Amount,
			Note:        s.noteFor(proposed.WorkOrderID),
		})
	}

	if err := s.calc.Validate(lines); err != nil {
		return err
	}

	s.mode = ModeSplit
	s.lines = lines

	return nil
}

// RefreshWorkOrders replaces the work order directory. Allocations
// referencing a work order that is no longer available are dropped
// immediately.
func (s *Session) RefreshWorkOrders(workOrders []suggestions.WorkOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setDirectory(workOrders)

	kept := s.lines[:0]
	for _, line := range s.lines {
		if _, ok := s.directory[line.WorkOrderID]; ok {
			kept = append(kept, line)
		}
	}
	s.lines = kept
}

// Submit hands the finalized receipt to the persistence collaborator.
//
// This is the single hard gate of the flow: it refuses to proceed
// unless the session is in review or manual entry, at least one
// allocation exists and the allocations add up to the receipt total.
func (s *Session) Submit(ctx context.Context, submitter Submitter) error {
	s.mu.Lock()

	if s.state != StateReview && s.state != StateManualEntry {
		s.mu.Unlock()
		return ErrNotReadyToSubmit
	}

	if len(s.lines) == 0 {
		s.mu.Unlock()
		return ErrNoAllocations
	}

	if !s.calc.State(s.lines, s.fields.Total).IsValid {
		s.mu.Unlock()
		return ErrNotBalanced
	}

	submission := Submission{
		VendorName:   s.fields.Vendor,
		Amount:       s.fields.Total,
		ReceiptDate:  s.fields.Date,
		Description:  s.fields.Description,
		Note:         s.fields.Note,
		Allocations:  s.copyLines(),
		ReceiptImage: s.image,
	}
	s.mu.Unlock()

	if err := submitter.Submit(ctx, submission); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = StateSubmitted
	s.mu.Unlock()

	return nil
}

// editable reports whether receipt fields and allocations can be
// changed in the current state.
func (s *Session) editable() bool {
	return s.state == StateCapture || s.state == StateReview || s.state == StateManualEntry
}

func (s *Session) noteFor(workOrderID uuid.UUID) string {
	for _, line := range s.lines {
		if line.WorkOrderID == workOrderID {
			return line.Note
		}
	}

	return ""
}

func (s *Session) setDirectory(workOrders []suggestions.WorkOrder) {
	s.directory = make(map[uuid.UUID]suggestions.WorkOrder, len(workOrders))
	s.order = make([]uuid.UUID, 0, len(workOrders))

	for _, workOrder := range workOrders {
		if _, ok := s.directory[workOrder.ID]; ok {
			continue
		}

		s.directory[workOrder.ID] = workOrder
		s.order = append(s.order, workOrder.ID)
	}
}

func (s *Session) copyLines() []allocation.Line {
	lines := make([]allocation.Line, len(s.lines))
	copy(lines, s.lines)
	return lines
}
