package allocation

import "errors"

var (
	ErrAmountNegative      = errors.New("allocation amounts must not be negative")
	ErrWorkOrderDuplicated = errors.New("a work order can only appear once per allocation")
	ErrNoWorkOrders        = errors.New("at least one work order is needed to split an amount")
	ErrNoLines             = errors.New("there are no allocations that could absorb the remaining amount")
	ErrStepNotPositive     = errors.New("the rounding step must be larger than zero")
)
