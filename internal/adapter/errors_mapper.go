package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/bank-mmudzi/models"
)

var statusErrors = map[int]error{
	http.StatusBadRequest:          ErrBadRequest,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusNotFound:            ErrNotFound,
	http.StatusUnprocessableEntity: ErrUnprocessable,
	http.StatusServiceUnavailable:  ErrServiceUnavailable,
	http.StatusInternalServerError: ErrInternalServerError,
}

func mapHTTPError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	msg := errorMessage(resp)
	if sentinel, ok := statusErrors[resp.StatusCode()]; ok {
		return fmt.Errorf("%w: %s", sentinel, msg)
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode(), msg)
}

// errorMessage prefers the server's ErrorResponse and falls back to the
// raw body, then to the status text.
func errorMessage(resp *resty.Response) string {
	var body models.ErrorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		return body.Error
	}
	if raw := strings.TrimSpace(string(resp.Body())); raw != "" {
		return raw
	}
	return http.StatusText(resp.StatusCode())
}
