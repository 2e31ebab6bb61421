package intake

import (
	"errors"

	"github.com/goccy/go-json"

	"github.com/KirkDiggler/kegledger/internal/common/errkind"
)

// Reply is published for every handled command
type Reply struct {
	// Command echoes the handled command
	Command string `json:"command"`

	// Status is "ok" or "error"
	Status string `json:"status"`

	// ErrorKind classifies a failure: configuration, not_found, state, validation or internal
	ErrorKind string `json:"error_kind,omitempty"`

	Error string `json:"error,omitempty"`

	// Result is the operation output on success
	Result interface{} `json:"result,omitempty"`
}

// renderReply builds the reply payload of a command
func renderReply(command string, result interface{}, err error) ([]byte, error) {
	reply := &Reply{Command: command, Status: "ok", Result: result}
	if err != nil {
		reply.Status = "error"
		reply.ErrorKind = errorKind(err)
		reply.Error = err.Error()
		reply.Result = nil
	}
	return json.Marshal(reply)
}

// errorKind maps an error to its reply classification
func errorKind(err error) string {
	switch {
	case errors.Is(err, errkind.ErrConfiguration):
		return "configuration"
	case errors.Is(err, errkind.ErrNotFound):
		return "not_found"
	case errors.Is(err, errkind.ErrState):
		return "state"
	case errors.Is(err, errkind.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}
