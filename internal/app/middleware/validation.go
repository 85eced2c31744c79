package middleware

import (
	"context"
)

// Validator checks struct tags on pricing messages. Failures come back as errs.ErrInvalidInput
// naming the offending JSON field, e.g. "min_price is required".
type Validator interface {
	Validate(ctx context.Context, message any) error
}

// Validation rejects malformed pricing commands before authorization looks up any stored row.
func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return guardCommands(v.Validate)
}

// QueryValidation applies the same checks to reads, such as the unit id of a log query.
func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return guardQueries(v.Validate)
}
