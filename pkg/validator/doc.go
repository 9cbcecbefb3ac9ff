// Package validator provides a small rule-based validation engine.
//
// Rules are plain values pairing a check closure with the field-level error to
// report on failure; Apply runs them in order and aggregates every failure
// into a ValidationErrors value that implements error.
//
// # Usage
//
//	err := validator.Apply(
//	    validator.Required("subject", subject),
//	    validator.MaxLen("subject", subject, 200),
//	    validator.FutureDate("event_time", eventTime),
//	)
//	if ve := validator.ExtractValidationErrors(err); ve != nil {
//	    // map ve.Details() into a 400 response
//	}
package validator
