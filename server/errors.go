package server

import (
	stderrors "errors"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/wasmship/wasmship/errors"
)

// ErrorData is carried in the data member of a JSON-RPC error so clients
// can rebuild the typed error.
type ErrorData struct {
	Kind     errors.Kind  `json:"kind"`
	Phase    errors.Phase `json:"phase"`
	Export   string       `json:"export,omitempty"`
	Detail   string       `json:"detail,omitempty"`
	Cause    string       `json:"cause,omitempty"`
	Position int          `json:"position"`
	Expected int          `json:"expected,omitempty"`
	Actual   int          `json:"actual,omitempty"`
}

// Code maps an error kind to a JSON-RPC error code.
func Code(kind errors.Kind) json2.ErrorCode {
	switch kind {
	case errors.KindInvalidInput:
		return json2.E_BAD_PARAMS
	default:
		return json2.E_SERVER
	}
}

// mapError converts service errors before the codec writes them.
func mapError(err error) error {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return &json2.Error{Code: json2.E_SERVER, Message: err.Error()}
	}

	data := ErrorData{
		Kind:     e.Kind,
		Phase:    e.Phase,
		Export:   e.Export,
		Detail:   e.Detail,
		Position: e.Position,
		Expected: e.Expected,
		Actual:   e.Actual,
	}
	if e.Cause != nil {
		data.Cause = e.Cause.Error()
	}
	return &json2.Error{Code: Code(e.Kind), Message: e.Error(), Data: data}
}

// ToError rebuilds the typed error from ErrorData.
func (d ErrorData) ToError() *errors.Error {
	b := errors.New(d.Phase, d.Kind).
		Export(d.Export).
		Position(d.Position).
		Counts(d.Expected, d.Actual)
	if d.Detail != "" {
		b = b.Detail("%s", d.Detail)
	}
	if d.Cause != "" {
		b = b.Cause(stderrors.New(d.Cause))
	}
	return b.Build()
}
