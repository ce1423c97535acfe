// Package suggestions generates ranked candidate allocations for a
// receipt from simple, explicit business rules.
//
// Suggestions are ephemeral: they are computed fresh from the inputs on
// every call and never stored.
package suggestions

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/receiptdesk/backend/internal/allocation"
	"github.com/ryanuber/go-glob"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Kind identifies the rule that produced a suggestion.
type Kind string

const (
	KindEvenSplit      Kind = "even_split"
	KindRecencyPattern Kind = "recency_pattern"
	KindVendorPattern  Kind = "vendor_pattern"
	KindAmountTier     Kind = "amount_tier"
)

// WorkOrder is the reference data a suggestion can allocate to. It is
// supplied by the caller, the engine never consults persisted history
// itself.
type WorkOrder struct {
	ID               uuid.UUID `json:"id" example:"65392deb-5e92-4268-b114-297faad6cdce"`
	Label            string    `json:"label" example:"WO-2317 HVAC repair"`          // Display number and title
	OrganizationName string    `json:"organizationName,omitempty" example:"Acme Co"` // Organization the work order belongs to
}

// Line is one proposed allocation within a suggestion.
type Line struct {
	WorkOrderID uuid.UUID       `json:"workOrderId" example:"65392deb-5e92-4268-b114-297faad6cdce"`
	Amount      decimal.Decimal `json:"amount" example:"800.00"`
	Percentage  int             `json:"percentage" example:"80"` // Share of the receipt total, rounded to a whole percent. Display only.
}

// Suggestion is a candidate allocation set, ranked by confidence.
type Suggestion struct {
	Kind        Kind    `json:"kind" example:"even_split"`
	Label       string  `json:"label" example:"Split evenly"`
	Description string  `json:"description" example:"Splits the amount evenly across 3 work orders"`
	Confidence  float64 `json:"confidenceScore" example:"0.9"` // 0.0 to 1.0
	Lines       []Line  `json:"allocations"`
}

// Config holds the patterns and thresholds the rules match on.
//
// The patterns are globs matched case-insensitively against work order
// labels and vendor names. The defaults reproduce the historic
// hardcoded keyword lists; deployments can override them without a
// code change.
type Config struct {
	// Work order labels that indicate recurring maintenance work.
	MaintenancePatterns []string

	// Vendors whose receipts are usually maintenance purchases.
	VendorPatterns []string

	// Work order labels the vendor rule concentrates the amount on.
	VendorWorkPatterns []string

	// Receipt totals above this value qualify for the tiered split.
	TierThreshold decimal.Decimal
}

// DefaultConfig returns the default rule configuration.
func DefaultConfig() Config {
	return Config{
		MaintenancePatterns: []string{"*maintenance*", "*repair*"},
		VendorPatterns:      []string{"*home depot*", "*lowes*"},
		VendorWorkPatterns:  []string{"*maintenance*", "*repair*", "*hvac*", "*plumbing*"},
		TierThreshold:       decimal.NewFromInt(500),
	}
}

// Engine generates suggestions.
type Engine struct {
	config Config
	calc   allocation.Calculator
}

// New returns an Engine with the default configuration.
func New() Engine {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig returns an Engine using the given rule configuration.
func NewWithConfig(config Config) Engine {
	return Engine{
		config: config,
		calc:   allocation.New(),
	}
}

// Suggest evaluates all rules against the work orders, the receipt
// total and the optional vendor name.
//
// The result is sorted by descending confidence, rules with the same
// confidence keep their evaluation order. No suggestions are generated
// for non-positive totals or when no work orders are available.
func (e Engine) Suggest(workOrders []WorkOrder, total decimal.Decimal, vendor string) []Suggestion {
	if !total.IsPositive() || len(workOrders) == 0 {
		return []Suggestion{}
	}

	var suggestions []Suggestion

	if s, ok := e.evenSplit(workOrders, total); ok {
		suggestions = append(suggestions, s)
	}

	if s, ok := e.recencyPattern(workOrders, total); ok {
		suggestions = append(suggestions, s)
	}

	if s, ok := e.vendorPattern(workOrders, total, vendor); ok {
		suggestions = append(suggestions, s)
	}

	if s, ok := e.amountTier(workOrders, total); ok {
		suggestions = append(suggestions, s)
	}

	slices.SortStableFunc(suggestions, func(a, b Suggestion) int {
		switch {
		case a.Confidence > b.Confidence:
			return -1
		case a.Confidence < b.Confidence:
			return 1
		default:
			return 0
		}
	})

	if suggestions == nil {
		return []Suggestion{}
	}

	return suggestions
}

// evenSplit proposes an even distribution across all work orders.
func (e Engine) evenSplit(workOrders []WorkOrder, total decimal.Decimal) (Suggestion, bool) {
	if len(workOrders) < 2 {
		return Suggestion{}, false
	}

	lines, err := e.calc.SplitEvenly(ids(workOrders), total)
	if err != nil {
		return Suggestion{}, false
	}

	return Suggestion{
		Kind:        KindEvenSplit,
		Label:       "Split evenly",
		Description: fmt.Sprintf("Splits the amount evenly across %d work orders", len(workOrders)),
		Confidence:  0.90,
		Lines:       e.toLines(lines, total),
	}, true
}

// recencyPattern concentrates 70% of the total on the first work order
// whose label looks like maintenance work and splits the rest evenly.
func (e Engine) recencyPattern(workOrders []WorkOrder, total decimal.Decimal) (Suggestion, bool) {
	if len(workOrders) < 2 {
		return Suggestion{}, false
	}

	matchIndex := -1
	for i, workOrder := range workOrders {
		if matchAny(e.config.MaintenancePatterns, workOrder.Label) {
			matchIndex = i
			break
		}
	}

	if matchIndex == -1 {
		return Suggestion{}, false
	}

	major := e.calc.Round(total.Mul(decimal.RequireFromString("0.7")))

	var rest []WorkOrder
	rest = append(rest, workOrders[:matchIndex]...)
	rest = append(rest, workOrders[matchIndex+1:]...)

	restLines, err := e.calc.SplitEvenly(ids(rest), total.Sub(major))
	if err != nil {
		return Suggestion{}, false
	}

	amounts := map[uuid.UUID]decimal.Decimal{workOrders[matchIndex].ID: major}
	for _, line := range restLines {
		amounts[line.WorkOrderID] = line.Amount
	}

	return Suggestion{
		Kind:        KindRecencyPattern,
		Label:       "Weight towards " + workOrders[matchIndex].Label,
		Description: "Allocates 70% to the maintenance work order and splits the rest evenly",
		Confidence:  0.75,
		Lines:       e.linesInOrder(workOrders, amounts, total),
	}, true
}

// vendorPattern applies when the vendor is a known hardware store:
// 80% of the total goes to the work orders whose labels match the
// vendor work patterns, 20% to the rest.
func (e Engine) vendorPattern(workOrders []WorkOrder, total decimal.Decimal, vendor string) (Suggestion, bool) {
	if vendor == "" || len(workOrders) < 2 {
		return Suggestion{}, false
	}

	if !matchAny(e.config.VendorPatterns, vendor) {
		return Suggestion{}, false
	}

	var matched, rest []WorkOrder
	for _, workOrder := range workOrders {
		if matchAny(e.config.VendorWorkPatterns, workOrder.Label) {
			matched = append(matched, workOrder)
		} else {
			rest = append(rest, workOrder)
		}
	}

	if len(matched) == 0 {
		return Suggestion{}, false
	}

	major := e.calc.Round(total.Mul(decimal.RequireFromString("0.8")))
	minor := total.Sub(major)

	majorLines, err := e.calc.SplitEvenly(ids(matched), major)
	if err != nil {
		return Suggestion{}, false
	}

	amounts := make(map[uuid.UUID]decimal.Decimal, len(workOrders))
	for _, line := range majorLines {
		amounts[line.WorkOrderID] = line.Amount
	}

	if len(rest) > 0 {
		minorLines, err := e.calc.SplitEvenly(ids(rest), minor)
		if err != nil {
			return Suggestion{}, false
		}

		for _, line := range minorLines {
			amounts[line.WorkOrderID] = line.Amount
		}
	} else {
		// Everything matched, the minor share goes to the first
		// matched work order as well
		amounts[matched[0].ID] = amounts[matched[0].ID].Add(minor)
	}

	return Suggestion{
		Kind:        KindVendorPattern,
		Label:       "Hardware store purchase",
		Description: fmt.Sprintf("Allocates 80%% to %d matching work orders based on the vendor %q", len(matched), vendor),
		Confidence:  0.80,
		Lines:       e.linesInOrder(workOrders, amounts, total),
	}, true
}

// amountTier proposes a 50/30/20 distribution for large receipts.
func (e Engine) amountTier(workOrders []WorkOrder, total decimal.Decimal) (Suggestion, bool) {
	if len(workOrders) < 3 || !total.GreaterThan(e.config.TierThreshold) {
		return Suggestion{}, false
	}

	first := e.calc.Round(total.Mul(decimal.RequireFromString("0.5")))
	second := e.calc.Round(total.Mul(decimal.RequireFromString("0.3")))

	restLines, err := e.calc.SplitEvenly(ids(workOrders[2:]), total.Sub(first).Sub(second))
	if err != nil {
		return Suggestion{}, false
	}

	amounts := map[uuid.UUID]decimal.Decimal{
		workOrders[0].ID: first,
		workOrders[1].ID: second,
	}
	for _, line := range restLines {
		amounts[line.WorkOrderID] = line.Amount
	}

	return Suggestion{
		Kind:        KindAmountTier,
		Label:       "Tiered split",
		Description: "Allocates 50% and 30% to the first two work orders and splits the rest evenly",
		Confidence:  0.65,
		Lines:       e.linesInOrder(workOrders, amounts, total),
	}, true
}

// linesInOrder builds the suggestion lines in work order input order.
func (e Engine) linesInOrder(workOrders []WorkOrder, amounts map[uuid.UUID]decimal.Decimal, total decimal.Decimal) []Line {
	lines := make([]Line, 0, len(amounts))
	for _, workOrder := range workOrders {
		amount, ok := amounts[workOrder.ID]
		if !ok {
			continue
		}

		lines = append(lines, Line{
			WorkOrderID: workOrder.ID,
			Amount:      amount,
			Percentage:  percentage(amount, total),
		})
	}

	return lines
}

func (e Engine) toLines(lines []allocation.Line, total decimal.Decimal) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, Line{
			WorkOrderID: line.WorkOrderID,
			Amount:      line.Amount,
			Percentage:  percentage(line.Amount, total),
		})
	}

	return out
}

// percentage returns the share of the total as a whole percent for
// display. It is not used in any downstream math.
func percentage(amount, total decimal.Decimal) int {
	if total.IsZero() {
		return 0
	}

	return int(amount.Div(total).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// matchAny reports whether the value matches any of the glob patterns,
// ignoring case.
func matchAny(patterns []string, value string) bool {
	value = strings.ToLower(value)
	for _, pattern := range patterns {
		if glob.Glob(strings.ToLower(pattern), value) {
			return true
		}
	}

	return false
}

func ids(workOrders []WorkOrder) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(workOrders))
	for _, workOrder := range workOrders {
		out = append(out, workOrder.ID)
	}

	return out
}
