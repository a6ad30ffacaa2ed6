package ctlapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/plexsphere/wgsession/internal/tunnelconfig"
)

// APIError is returned by Client for non-2xx replies.
// It supports errors.Is matching by status code.
type APIError struct {
	StatusCode int
	Message    string
	Problems   []tunnelconfig.FieldError
}

func (e *APIError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("ctlapi: HTTP %d: %s", e.StatusCode, e.Message)
	}
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Field + ": " + p.Reason
	}
	return fmt.Sprintf("ctlapi: HTTP %d: %s", e.StatusCode, strings.Join(msgs, "; "))
}

// Is supports errors.Is matching by status code.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode
}

// Sentinel errors for the status codes the control socket uses.
var (
	ErrBadRequest  = &APIError{StatusCode: http.StatusBadRequest, Message: "bad request"}
	ErrForbidden   = &APIError{StatusCode: http.StatusForbidden, Message: "forbidden"}
	ErrNotFound    = &APIError{StatusCode: http.StatusNotFound, Message: "not found"}
	ErrRateLimit   = &APIError{StatusCode: http.StatusTooManyRequests, Message: "request queue full"}
	ErrBackend     = &APIError{StatusCode: http.StatusBadGateway, Message: "backend operation failed"}
	ErrUnavailable = &APIError{StatusCode: http.StatusServiceUnavailable, Message: "unavailable"}
)

// maxErrorBody is the maximum number of bytes read from an error response body.
const maxErrorBody = 4096

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		apiErr.Message = er.Error
		apiErr.Problems = er.Problems
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
