package models

import (
	"errors"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")

	ErrWorkOrderNumberNotUnique     = errors.New("the work order number must be unique")
	ErrAllocationWorkOrderNotUnique = errors.New("a work order can only appear once per receipt")
	ErrAmountNegative               = errors.New("amounts must not be negative")
	ErrReceiptAlreadySubmitted      = errors.New("the receipt has already been submitted")
)
