package types

import "errors"

// ErrUnknownTool is returned by providers for tool IDs they do not own.
var ErrUnknownTool = errors.New("unknown tool")

// ParamError reports a missing or malformed tool parameter.
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return e.Param + " " + e.Reason
}

// Required reports a missing required parameter.
func Required(param string) error {
	return &ParamError{Param: param, Reason: "is required"}
}
