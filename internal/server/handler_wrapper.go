package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"

	scsv "github.com/7hebel/SuperCSV"
)

// apiError carries an HTTP status for failures born in the handlers rather
// than the document layer.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string {
	return e.message
}

func apiErrorf(status int, code, format string, args ...any) *apiError {
	return &apiError{status: status, code: code, message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *apiError {
	return apiErrorf(http.StatusNotFound, "NOT_FOUND", format, args...)
}

func badRequest(code, format string, args ...any) *apiError {
	return apiErrorf(http.StatusBadRequest, code, format, args...)
}

// statusForCode maps document error categories to HTTP statuses. A missing
// row is the caller's addressing mistake, storage trouble is ours, anything
// else is a bad payload.
func statusForCode(code scsv.Code) int {
	switch code {
	case scsv.CodeIndex:
		return http.StatusNotFound
	case scsv.CodeStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func classify(err error) (status int, code string, details map[string]any) {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status, ae.code, nil
	}
	var se *scsv.Error
	if errors.As(err, &se) {
		return statusForCode(se.Code()), string(se.Code()), se.Details()
	}
	return http.StatusInternalServerError, "INTERNAL", nil
}

// Wrap turns a typed handler function into an http.Handler. The function
// must have signature func(context.Context, In) (*Out, error). The request
// body, when present, is decoded into In as JSON; struct fields tagged
// `path:"name"` and `query:"name"` are filled from the route and the query
// string.
func Wrap[In any, Out any](fn func(context.Context, In) (*Out, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		body, err := io.ReadAll(r.Body)
		if err2 := r.Body.Close(); err == nil {
			err = err2
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to read request body", "err", err)
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Failed to read request body", nil)
			return
		}
		var input In
		if len(body) > 0 {
			d := json.NewDecoder(bytes.NewReader(body))
			d.DisallowUnknownFields()
			if err := d.Decode(&input); err != nil {
				slog.ErrorContext(ctx, "Failed to decode request body", "err", err)
				writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
				return
			}
		}

		populatePathParams(r, &input)
		populateQueryParams(r, &input)

		output, err := fn(ctx, input)
		if err != nil {
			status, code, details := classify(err)
			slog.ErrorContext(ctx, "Handler error", "err", err, "status", status, "code", code)
			writeError(w, status, code, err.Error(), details)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(output); err != nil {
			slog.ErrorContext(ctx, "Failed to encode response", "err", err)
		}
	})
}

// populatePathParams fills struct fields tagged `path:"name"` from the
// request's route parameters.
func populatePathParams(r *http.Request, input any) {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Ptr {
		return
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Struct {
		return
	}
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("path")
		if tag == "" {
			continue
		}
		paramValue := r.PathValue(tag)
		if paramValue == "" {
			continue
		}
		if field.Type.Kind() == reflect.String {
			elem.Field(i).SetString(paramValue)
		}
	}
}

// populateQueryParams fills struct fields tagged `query:"name"` from the
// query string. String and int fields are supported.
func populateQueryParams(r *http.Request, input any) {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Ptr {
		return
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Struct {
		return
	}
	query := r.URL.Query()
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("query")
		if tag == "" {
			continue
		}
		paramValue := query.Get(tag)
		if paramValue == "" {
			continue
		}
		switch field.Type.Kind() {
		case reflect.String:
			elem.Field(i).SetString(paramValue)
		case reflect.Int:
			if intVal, err := strconv.Atoi(paramValue); err == nil {
				elem.Field(i).SetInt(int64(intVal))
			}
		}
	}
}

// writeError writes the error envelope every failing endpoint shares.
func writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
	if len(details) > 0 {
		response["details"] = details
	}
	_ = json.NewEncoder(w).Encode(response)
}
