package errors

import stdErrors "errors"

// Dumped is a flattened view of an error chain for structured logging.
type Dumped struct {
	Code       string
	TopMessage string
	Chain      []string
}

// Dump walks the error chain and collects every message for log output.
func Dump(err error) Dumped {
	var dump Dumped
	if err == nil {
		return dump
	}
	dump.TopMessage = err.Error()
	if typed := As(err); typed != nil {
		dump.Code = string(typed.Code())
	}
	for cursor := err; cursor != nil; cursor = stdErrors.Unwrap(cursor) {
		dump.Chain = append(dump.Chain, cursor.Error())
	}
	return dump
}
