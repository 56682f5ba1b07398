package mcpadapter

import (
	"errors"

	"github.com/aman-cerp/memsrv/internal/errs"
)

// ToolError is the structured error shape returned to MCP stdio clients for
// every failed tool call (spec §7): kind, message, and an optional
// remediation hint, carried verbatim from the Processing Service.
type ToolError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Hint != "" {
		return e.Kind + ": " + e.Message + " (" + e.Hint + ")"
	}
	return e.Kind + ": " + e.Message
}

// mapError converts any error the service returns into a ToolError,
// preserving kind/message/hint when it's a structured *errs.Error and
// falling back to "internal" for anything else so a collaborator's
// unexpected error never escapes as a raw Go panic-able value.
func mapError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var se *errs.Error
	if errors.As(err, &se) {
		return &ToolError{Kind: string(se.Kind), Message: se.Message, Hint: se.Hint}
	}
	return &ToolError{Kind: string(errs.Internal), Message: err.Error()}
}

// invalidTimeErr reports a malformed RFC3339 timestamp as invalid_params so
// it maps through the same path as any other validation failure.
func invalidTimeErr(value string) error {
	return errs.InvalidParamsf("%q is not a valid RFC3339 timestamp", value)
}
