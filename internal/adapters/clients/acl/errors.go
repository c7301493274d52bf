package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quotesync/internal/adapters/clients"
	"github.com/jsamuelsen/quotesync/internal/domain"
)

// maxErrorBody caps how much of an error body is inspected.
const maxErrorBody = 64 << 10

// ErrorResponse is the common upstream error envelope. Both the nested
// {"error":{"code","message"}} and the flat {"code","message"} forms are accepted.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorDetail is the nested part of ErrorResponse.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// GetMessage returns the nested message, falling back to the flat one.
func (e *ErrorResponse) GetMessage() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// ParseErrorResponse decodes an error body, returning nil when it carries nothing useful.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var resp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&resp); err != nil {
		return nil
	}

	if resp.GetMessage() == "" && resp.Error.Code == "" && resp.Code == "" {
		return nil
	}

	return &resp
}

// MapHTTPError turns a failed exchange into a domain error. Pass the client
// error when no response was received, otherwise the non-2xx response.
func MapHTTPError(resp *http.Response, clientErr error, service, operation string) error {
	if clientErr != nil {
		return mapClientError(clientErr, service, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(service, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	var body *ErrorResponse
	if resp.Body != nil {
		body = ParseErrorResponse(resp.Body)
	}

	return mapStatus(resp.StatusCode, body, service, operation)
}

func mapClientError(err error, service, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(service, "circuit breaker open during "+operation)
	default:
		return domain.NewUnavailableError(service, fmt.Sprintf("%s failed: %v", operation, err))
	}
}

func mapStatus(status int, body *ErrorResponse, service, operation string) error {
	message := fmt.Sprintf("%s failed with status %d", operation, status)
	if body != nil && body.GetMessage() != "" {
		message = body.GetMessage()
	}

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError(service+" resource", "")
	case status == http.StatusConflict:
		return domain.NewConflictError(service, message)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if body != nil {
			for field, msg := range body.Error.Details {
				return domain.NewValidationError(field, msg)
			}
		}

		return domain.NewValidationError("", message)
	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(service, "rate limit exceeded")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewUnavailableError(service, "access denied")
	default:
		return domain.NewUnavailableError(service, message)
	}
}
