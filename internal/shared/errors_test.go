package shared

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAPIError(t *testing.T) {
	err := NewAPIError("text_required", "Text is required")
	if err.Error() != "text_required: Text is required" {
		t.Errorf("unexpected error string %q", err.Error())
	}

	httpErr := err.ToHTTP(http.StatusBadRequest)
	if httpErr.Message != err {
		t.Error("expected the api error as the http error message")
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		helper func(code, message string) *echo.HTTPError
		status int
	}{
		{"bad request", BadRequest, http.StatusBadRequest},
		{"not found", NotFound, http.StatusNotFound},
		{"payload too large", PayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"unprocessable", UnprocessableEntity, http.StatusUnprocessableEntity},
		{"too many requests", TooManyRequests, http.StatusTooManyRequests},
		{"internal", InternalError, http.StatusInternalServerError},
		{"unavailable", ServiceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.helper("some_code", "some message")
			if err.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, err.Code)
			}
			apiErr, ok := err.Message.(*APIError)
			if !ok {
				t.Fatalf("expected *APIError message, got %T", err.Message)
			}
			if apiErr.Code != "some_code" || apiErr.Message != "some message" {
				t.Errorf("unexpected body %+v", apiErr)
			}
		})
	}
}
