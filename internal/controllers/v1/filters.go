package v1

import (
	"fmt"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

func workOrderFilters(db, query *gorm.DB, setFields []string, number, title, note, search string) *gorm.DB {
	if number != "" {
		query = query.Where("number LIKE ?", fmt.Sprintf("%%%s%%", number))
	} else if slices.Contains(setFields, "Number") {
		query = query.Where("number = ''")
	}

	if title != "" {
		query = query.Where("title LIKE ?", fmt.Sprintf("%%%s%%", title))
	} else if slices.Contains(setFields, "Title") {
		query = query.Where("title = ''")
	}

	if note != "" {
		query = query.Where("note LIKE ?", fmt.Sprintf("%%%s%%", note))
	} else if slices.Contains(setFields, "Note") {
		query = query.Where("note = ''")
	}

	if search != "" {
		query = query.Where(
			db.Where("number LIKE ?", fmt.Sprintf("%%%s%%", search)).Or(
				db.Where("title LIKE ?", fmt.Sprintf("%%%s%%", search)),
			).Or(
				db.Where("note LIKE ?", fmt.Sprintf("%%%s%%", search)),
			),
		)
	}

	return query
}

func receiptFilters(db, query *gorm.DB, setFields []string, vendor, note, search string) *gorm.DB {
	if vendor != "" {
		query = query.Where("vendor_name LIKE ?", fmt.Sprintf("%%%s%%", vendor))
	} else if slices.Contains(setFields, "Vendor") {
		query = query.Where("vendor_name = ''")
	}

	if note != "" {
		query = query.Where("note LIKE ?", fmt.Sprintf("%%%s%%", note))
	} else if slices.Contains(setFields, "Note") {
		query = query.Where("note = ''")
	}

	if search != "" {
		query = query.Where(
			db.Where("vendor_name LIKE ?", fmt.Sprintf("%%%s%%", search)).Or(
				db.Where("description LIKE ?", fmt.Sprintf("%%%s%%", search)),
			).Or(
				db.Where("note LIKE ?", fmt.Sprintf("%%%s%%", search)),
			),
		)
	}

	return query
}
