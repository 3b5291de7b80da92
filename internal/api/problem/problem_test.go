package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewAndWithErrors(t *testing.T) {
	fieldErrors := []FieldError{{Field: "readiness", Message: "must be at most 1"}}
	p := New(http.StatusBadRequest, "bad-request", "Bad Request", "details").WithErrors(fieldErrors)

	if got, want := p.Type, BaseURI+":bad-request"; got != want {
		t.Errorf("Expected type %q, got %q", want, got)
	}
	if p.Status != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", p.Status)
	}
	if len(p.Errors) != 1 || p.Errors[0] != fieldErrors[0] {
		t.Errorf("Expected field errors to be attached, got %+v", p.Errors)
	}
}

func TestProblemWrite(t *testing.T) {
	tests := []struct {
		name   string
		p      *Problem
		status int
	}{
		{"Not found", NotFound("missing"), http.StatusNotFound},
		{"Bad request", BadRequest("invalid"), http.StatusBadRequest},
		{"Validation", ValidationError("invalid", nil), http.StatusUnprocessableEntity},
		{"Unavailable", Unavailable("no data"), http.StatusServiceUnavailable},
		{"Internal", InternalError("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			tt.p.Write(resp)

			if resp.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.Code)
			}
			if ct := resp.Header().Get("Content-Type"); ct != ContentType {
				t.Errorf("Expected content type %s, got %s", ContentType, ct)
			}
			var body Problem
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode body: %v", err)
			}
			if body.Status != tt.status {
				t.Errorf("Expected body status %d, got %d", tt.status, body.Status)
			}
		})
	}
}
