package apperr

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FromValidation converts an ozzo-validation result into a
// *ValidationError for the first failing field (in name order). nil stays
// nil and non-validation errors pass through unchanged.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		keys := make([]string, 0, len(errs))
		for k, e := range errs {
			if e != nil {
				keys = append(keys, k)
			}
		}
		if len(keys) == 0 {
			return nil
		}
		sort.Strings(keys)
		return Invalid(keys[0], errs[keys[0]].Error())
	}
	var ve validation.Error
	if errors.As(err, &ve) {
		return Invalid("", ve.Error())
	}
	return err
}
