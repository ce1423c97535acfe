package models

import (
	"strings"

	"gorm.io/gorm"
)

// WorkOrder is a unit of billable work that receipt amounts can be
// attributed to. Work orders are reference data for the allocation
// flow; the receipt flow itself never changes them.
type WorkOrder struct {
	DefaultModel
	Number           string `json:"number" gorm:"uniqueIndex" example:"WO-2317"`    // Unique work order number
	Title            string `json:"title" example:"HVAC repair"`                    // Short description of the work
	OrganizationName string `json:"organizationName,omitempty" example:"Acme Co"`   // Organization the work order belongs to
	Note             string `json:"note,omitempty" example:"Recurring maintenance"` // Notes about the work order
	Archived         bool   `json:"archived" example:"false"`                       // Archived work orders are not offered for allocation
}

func (w *WorkOrder) BeforeSave(_ *gorm.DB) error {
	w.Number = strings.TrimSpace(w.Number)
	w.Title = strings.TrimSpace(w.Title)
	w.OrganizationName = strings.TrimSpace(w.OrganizationName)
	w.Note = strings.TrimSpace(w.Note)

	return nil
}

// Label is the display label used by the suggestion heuristics.
func (w WorkOrder) Label() string {
	if w.Number == "" {
		return w.Title
	}

	return w.Number + " " + w.Title
}
