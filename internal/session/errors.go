package session

import "errors"

var (
	ErrUnknownWorkOrder = errors.New("the allocation references a work order that is not available")
	ErrNotBalanced      = errors.New("the allocations do not add up to the receipt total")
	ErrNoAllocations    = errors.New("at least one allocation is needed before submitting")
	ErrNotReadyToSubmit = errors.New("the receipt is not ready to be submitted")
	ErrNotEditable      = errors.New("the session cannot be edited in its current state")
	ErrScanSuperseded   = errors.New("the scan was cancelled or superseded by a newer scan")
)
