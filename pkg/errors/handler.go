package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every failed REST call.
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ErrorHandler renders errors as ErrorResponse bodies. Outside debug mode
// errors that are not AppErrors are reported without their text.
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes err as a JSON error response. A nil err writes nothing.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	appErr := GetAppError(err)
	if appErr == nil {
		message := "An internal error occurred"
		if h.debug {
			message = err.Error()
		}
		appErr = NewInternalError(message).WithCause(err)
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	details := appErr.Details
	if h.debug && appErr.StackTrace != "" {
		details = make(map[string]interface{}, len(appErr.Details)+1)
		for k, v := range appErr.Details {
			details[k] = v
		}
		details["stack_trace"] = appErr.StackTrace
	}

	fields := []zap.Field{zap.String("error_type", string(appErr.Type))}
	if appErr.Cause != nil {
		fields = append(fields, zap.Error(appErr.Cause))
	}
	h.log(r, status, appErr.Message, fields...)
	h.write(w, r, status, ErrorResponse{
		Type:    string(appErr.Type),
		Message: appErr.Message,
		Details: details,
	})
}

// HandleStatus writes a bare status with a message, for failures raised
// outside the services such as malformed routes.
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.log(r, status, message)
	h.write(w, r, status, ErrorResponse{
		Type:    string(typeForStatus(status)),
		Message: message,
	})
}

// Middleware recovers panics and reports them as internal errors
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *ErrorHandler) log(r *http.Request, status int, message string, extra ...zap.Field) {
	fields := append([]zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	}, extra...)

	if status >= http.StatusInternalServerError {
		h.logger.Error(message, fields...)
		return
	}
	h.logger.Warn(message, fields...)
}

func (h *ErrorHandler) write(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	body.Error = true
	body.RequestID = middleware.GetReqID(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

// typeForStatus inverts statusByType. 409 reads as CONFLICT, never BLOCKED.
func typeForStatus(status int) ErrorType {
	switch status {
	case http.StatusUnprocessableEntity:
		return ErrorTypeValidation
	case http.StatusRequestTimeout:
		return ErrorTypeTimeout
	case http.StatusConflict:
		return ErrorTypeConflict
	}
	for t, s := range statusByType {
		if s == status {
			return t
		}
	}
	return ErrorTypeInternal
}
