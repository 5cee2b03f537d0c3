// internal/app/system/httpjson/httpjson.go
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"go.uber.org/zap"
)

// MaxBodyBytes bounds request bodies decoded by Decode.
const MaxBodyBytes = 1 << 20

// Write encodes v as the JSON response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { Write(w, http.StatusOK, v) }

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) { Write(w, http.StatusCreated, v) }

type errorBody struct {
	Error string `json:"error"`
}

// Error maps err to a status and writes {"error": message}.
// Internal and upstream failures are logged with op and the cause; the
// client only sees a generic message.
func Error(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	kind := apperr.KindOf(err)
	if (kind == apperr.Internal || kind == apperr.Upstream) && log != nil {
		log.Error("request failed",
			zap.String("operation", op),
			zap.String("kind", kind.String()),
			zap.Error(err))
	}
	Write(w, kind.Status(), errorBody{Error: apperr.PublicMessage(err)})
}

// Message writes {"error": msg} with status. Use it for conditions raised
// by middleware rather than by an operation.
func Message(w http.ResponseWriter, status int, msg string) {
	Write(w, status, errorBody{Error: msg})
}

// Decode reads a JSON body into dst. Unknown fields are rejected and any
// decoding problem is returned as a validation error.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Invalid("request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("request body is required")
		}
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			return apperr.Invalid(fmt.Sprintf("malformed JSON at offset %d", syn.Offset))
		}
		var typ *json.UnmarshalTypeError
		if errors.As(err, &typ) {
			return apperr.Invalid(fmt.Sprintf("field %q has the wrong type", typ.Field))
		}
		return apperr.Wrap(apperr.Validation, "invalid request body", err)
	}
	return nil
}
