// Provides middleware for standardizing HTTP handlers.

package server

import (
	"bytes"
	"context"
	"encoding"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"

	"github.com/maruel/mdpages/internal/server/dto"
	"github.com/maruel/mdpages/internal/server/ratelimit"
	"github.com/maruel/mdpages/internal/server/reqctx"
)

// Options configures the wrapped handlers.
type Options struct {
	// MaxRequestBodyBytes caps the request body; 0 disables the cap.
	MaxRequestBodyBytes int64
	// RateLimits selects a limiter per request; nil disables rate limiting.
	RateLimits *ratelimit.Config
	// TrustedProxies may set the client IP with X-Forwarded-For or X-Real-IP.
	TrustedProxies reqctx.Proxies
}

// checkRateLimit checks the rate limit for the request and writes the rate
// limit headers. Returns false if a 429 response was written.
func checkRateLimit(w http.ResponseWriter, r *http.Request, limits *ratelimit.Config) bool {
	tier := limits.Match(r.Method, r.URL.Path)
	if tier == nil {
		return true
	}
	ip := reqctx.ClientIP(r.Context())
	if ip == "" {
		ip = reqctx.GetClientIP(r, nil)
	}
	result := tier.Limiter.Allow(ratelimit.BuildKey(tier.Name, ip))
	ratelimit.WriteHeaders(w, result)
	if !result.Allowed {
		slog.WarnContext(r.Context(), "Rate limited", "tier", tier.Name)
		writeRateLimitError(w, result)
		return false
	}
	return true
}

// readAndDecodeBody reads the request body with size limit and decodes JSON into input.
// Returns false if an error occurred and was written to the response.
func readAndDecodeBody[In any](ctx context.Context, w http.ResponseWriter, r *http.Request, input *In, opts *Options) bool {
	if opts.MaxRequestBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, opts.MaxRequestBodyBytes)
	}

	body, err := io.ReadAll(r.Body)
	if err2 := r.Body.Close(); err == nil {
		err = err2
	}
	if err != nil {
		if maxBytesErr := checkMaxBytesError(err); maxBytesErr != nil {
			writeAPIError(w, dto.PayloadTooLarge(maxBytesErr.Limit))
			return false
		}
		slog.ErrorContext(ctx, "Failed to read request body", "err", err)
		writeBadRequestError(w, "Failed to read request body")
		return false
	}

	if len(body) > 0 {
		d := json.NewDecoder(bytes.NewReader(body))
		d.DisallowUnknownFields()
		if err := d.Decode(input); err != nil {
			slog.WarnContext(ctx, "Failed to decode request body", "err", err)
			writeBadRequestError(w, "Invalid request body")
			return false
		}
	}
	return true
}

// writeJSONResponse writes a JSON response or error response.
func writeJSONResponse[Out any](ctx context.Context, w http.ResponseWriter, output *Out, err error) {
	if err != nil {
		var ewsErr dto.ErrorWithStatus
		if !errors.As(err, &ewsErr) {
			// Only APIError messages are safe to show to clients.
			slog.ErrorContext(ctx, "Handler error", "err", err)
			ewsErr = dto.Internal("internal error")
		}
		level := slog.LevelDebug
		if ewsErr.StatusCode() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "Handler error", "statusCode", ewsErr.StatusCode(), "code", ewsErr.Code())
		writeAPIError(w, ewsErr)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(output); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "err", err)
	}
}

// Wrap wraps a handler function to work as an http.Handler.
// The function must have signature: func(context.Context, *In) (*Out, error)
// where In can be unmarshalled from JSON and Out is JSON encodable.
// Query parameters can be extracted by tagging struct fields with
// `query:"name"`.
// *In must implement dto.Validatable.
//
// Example:
//
//	type DeletePageRequest struct {
//	    Path *string `json:"-" query:"path"`
//	}
//
//	func (h *EditHandler) Delete(ctx context.Context, req *DeletePageRequest) (*dto.Status, error)
func Wrap[In any, PtrIn interface {
	*In
	dto.Validatable
}, Out any](fn func(context.Context, PtrIn) (*Out, error), opts *Options) http.Handler {
	if opts == nil {
		opts = &Options{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if !checkRateLimit(w, r, opts.RateLimits) {
			return
		}

		input := new(In)
		if !readAndDecodeBody(ctx, w, r, input, opts) {
			return
		}

		populateQueryParams(r, input)

		if err := PtrIn(input).Validate(); err != nil {
			handleValidationError(ctx, w, err)
			return
		}

		output, err := fn(ctx, PtrIn(input))
		writeJSONResponse(ctx, w, output, err)
	})
}

// WrapRaw applies the rate limit to a plain http.Handler.
func WrapRaw(h http.Handler, opts *Options) http.Handler {
	if opts == nil {
		opts = &Options{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !checkRateLimit(w, r, opts.RateLimits) {
			return
		}
		h.ServeHTTP(w, r)
	})
}

// checkMaxBytesError checks if an error is a MaxBytesError and returns it, or nil.
func checkMaxBytesError(err error) *http.MaxBytesError {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return maxBytesErr
	}
	return nil
}

// populateQueryParams extracts query parameters from the request and populates
// struct fields tagged with `query:"paramName"`.
//
// A *string field is set whenever the parameter is present, even if empty, so
// that "?path=" can be told apart from a missing parameter.
func populateQueryParams(r *http.Request, input any) {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Pointer {
		return // Skip if not a pointer
	}

	elem := val.Elem()
	if elem.Kind() != reflect.Struct {
		return // Skip if not a struct
	}

	query := r.URL.Query()
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("query")
		if tag == "" {
			continue
		}

		values, present := query[tag]
		if !present {
			continue
		}
		paramValue := ""
		if len(values) > 0 {
			paramValue = values[0]
		}

		fieldVal := elem.Field(i)
		switch {
		case field.Type.Kind() == reflect.Pointer && field.Type.Elem().Kind() == reflect.String:
			fieldVal.Set(reflect.ValueOf(&paramValue))
		case paramValue == "":
		case field.Type.Kind() == reflect.String:
			fieldVal.SetString(paramValue)
		case field.Type.Kind() == reflect.Int:
			if intVal, err := strconv.Atoi(paramValue); err == nil {
				fieldVal.SetInt(int64(intVal))
			}
		default:
			// Try to use encoding.TextUnmarshaler interface for custom types
			if fieldVal.CanAddr() {
				if unmarshaler, ok := fieldVal.Addr().Interface().(encoding.TextUnmarshaler); ok {
					_ = unmarshaler.UnmarshalText([]byte(paramValue))
				}
			}
		}
	}
}

// handleValidationError handles a validation error from a request's Validate method.
func handleValidationError(ctx context.Context, w http.ResponseWriter, err error) {
	var ewsErr dto.ErrorWithStatus
	if !errors.As(err, &ewsErr) {
		ewsErr = dto.BadRequest(err.Error())
	}
	slog.DebugContext(ctx, "Validation error", "err", err, "code", ewsErr.Code())
	writeAPIError(w, ewsErr)
}

// writeBadRequestError writes a 400 Bad Request error response as JSON.
func writeBadRequestError(w http.ResponseWriter, message string) {
	writeAPIError(w, dto.BadRequest(message))
}

// writeAPIError writes err as a JSON error response.
func writeAPIError(w http.ResponseWriter, err dto.ErrorWithStatus) {
	writeErrorResponseWithCode(w, err.StatusCode(), err.Code(), err.Error(), err.Details())
}

// writeErrorResponseWithCode writes a detailed error response as JSON with code and details.
func writeErrorResponseWithCode(w http.ResponseWriter, statusCode int, code dto.ErrorCode, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := dto.ErrorResponse{
		Error: dto.ErrorDetails{
			Code:    code,
			Message: message,
		},
		Details: details,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// writeRateLimitError writes a 429 rate limit error response.
func writeRateLimitError(w http.ResponseWriter, result ratelimit.Result) {
	writeAPIError(w, dto.RateLimitExceeded(int(result.RetryAfter.Seconds())))
}
