// Package allocation implements the numeric engine that distributes a
// receipt total across work orders.
//
// All operations are pure functions over their inputs. Amounts are
// decimal.Decimal values rounded to a configurable currency precision,
// so sums reconcile exactly and the epsilon checks never suffer from
// binary float drift.
package allocation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPrecision is the number of fractional digits used for currency
// amounts.
const DefaultPrecision int32 = 2

// Epsilon is the tolerance below which a remaining balance is treated
// as zero.
var Epsilon = decimal.New(1, -2)

// Line is a single allocation of an amount to a work order.
type Line struct {
	WorkOrderID uuid.UUID       `json:"workOrderId" example:"65392deb-5e92-4268-b114-297faad6cdce"` // ID of the work order the amount is allocated to
	Amount      decimal.Decimal `json:"amount" example:"33.34"`                                     // Allocated amount, never negative
	Note        string          `json:"note,omitempty" example:"Filters for unit 4"`                // Notes for this allocation
}

// State describes a set of allocation lines in relation to a receipt
// total. It is fully derived and never persisted.
type State struct {
	TotalAllocated   decimal.Decimal `json:"totalAllocated" example:"80.00"` // Sum of all allocated amounts
	Remaining        decimal.Decimal `json:"remaining" example:"20.00"`      // Receipt total minus the allocated sum
	IsValid          bool            `json:"isValid" example:"false"`        // True when the remaining balance is within the epsilon tolerance
	IsOverAllocated  bool            `json:"isOverAllocated" example:"false"`
	IsUnderAllocated bool            `json:"isUnderAllocated" example:"true"`
}

// Calculator performs all allocation arithmetic. The zero value is not
// usable, get one with New.
type Calculator struct {
	precision int32
}

// New returns a Calculator with the default currency precision.
func New() Calculator {
	return Calculator{precision: DefaultPrecision}
}

// NewWithPrecision returns a Calculator rounding to the given number of
// fractional digits.
func NewWithPrecision(precision int32) Calculator {
	return Calculator{precision: precision}
}

// Round rounds an amount to the calculator's currency precision.
func (c Calculator) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.precision)
}

// State sums the allocation lines and derives the validity flags for
// the given receipt total.
//
// Every amount is rounded to the currency precision before summing.
func (c Calculator) State(lines []Line, total decimal.Decimal) State {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(c.Round(line.Amount))
	}

	remaining := total.Sub(sum)

	return State{
		TotalAllocated:   sum,
		Remaining:        remaining,
		IsValid:          remaining.Abs().LessThan(Epsilon),
		IsOverAllocated:  remaining.LessThanOrEqual(Epsilon.Neg()),
		IsUnderAllocated: remaining.GreaterThanOrEqual(Epsilon),
	}
}

// Validate checks the allocation invariants: no negative amounts and no
// duplicate work order IDs.
func (c Calculator) Validate(lines []Line) error {
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if line.Amount.IsNegative() {
			return ErrAmountNegative
		}

		if seen[line.WorkOrderID] {
			return ErrWorkOrderDuplicated
		}
		seen[line.WorkOrderID] = true
	}

	return nil
}

// SplitEvenly distributes the total evenly across the work orders.
//
// The per-line base amount is the total divided by the number of work
// orders, rounded to the currency precision. The rounding residual is
// concentrated on the first line so that the output always sums to
// exactly the total. Output order is input order.
func (c Calculator) SplitEvenly(workOrderIDs []uuid.UUID, total decimal.Decimal) ([]Line, error) {
	if len(workOrderIDs) == 0 {
		return nil, ErrNoWorkOrders
	}

	if total.IsNegative() {
		return nil, ErrAmountNegative
	}

	count := decimal.NewFromInt(int64(len(workOrderIDs)))
	base := c.Round(total.Div(count))
	first := base.Add(total.Sub(base.Mul(count)))

	if first.IsNegative() {
		return nil, ErrAmountNegative
	}

	lines := make([]Line, 0, len(workOrderIDs))
	for i, id := range workOrderIDs {
		amount := base
		if i == 0 {
			amount = first
		}

		lines = append(lines, Line{WorkOrderID: id, Amount: amount})
	}

	return lines, nil
}

// RoundToNearest rounds every amount to the nearest multiple of step.
//
// This is a lossy convenience transform: the output does not generally
// sum to the original total and callers must re-validate afterwards,
// usually with DistributeRemainder. Ties on the quotient round half
// away from zero.
func (c Calculator) RoundToNearest(lines []Line, step decimal.Decimal) ([]Line, error) {
	if !step.IsPositive() {
		return nil, ErrStepNotPositive
	}

	rounded := make([]Line, 0, len(lines))
	for _, line := range lines {
		multiples := line.Amount.Div(step).Round(0)
		line.Amount = c.Round(multiples.Mul(step))
		rounded = append(rounded, line)
	}

	return rounded, nil
}

// DistributeRemainder adds the difference between the total and the
// allocated sum to the last line.
//
// The correction is concentrated at the tail instead of being spread
// out, which keeps the operation deterministic and idempotent: once the
// remaining balance is within the epsilon tolerance, the input is
// returned unchanged. An empty line list cannot absorb a remainder and
// is reported as ErrNoLines.
func (c Calculator) DistributeRemainder(lines []Line, total decimal.Decimal) ([]Line, error) {
	state := c.State(lines, total)
	if state.IsValid {
		return lines, nil
	}

	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	corrected := make([]Line, len(lines))
	copy(corrected, lines)

	last := &corrected[len(corrected)-1]
	last.Amount = c.Round(last.Amount).Add(state.Remaining)

	if last.Amount.IsNegative() {
		return nil, ErrAmountNegative
	}

	return corrected, nil
}
