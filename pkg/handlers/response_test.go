package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/apperrors"
)

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()

	if err := ErrorResponse(w, http.StatusBadRequest, "invalid_input", "bad color"); err != nil {
		t.Fatalf("ErrorResponse returned error: %v", err)
	}

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status code = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body["error"] != "invalid_input" || body["message"] != "bad color" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestWriteJSON_StatusHandling(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WriteJSON(w, http.StatusCreated, map[string]int{"created": 5}); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}
	if w.Code != http.StatusCreated {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if strings.TrimSpace(w.Body.String()) != `{"created":5}` {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestWriteJSON_UnencodableData(t *testing.T) {
	w := httptest.NewRecorder()
	data := make(chan int) // channels cannot be JSON-encoded

	if err := WriteJSON(w, http.StatusOK, data); err == nil {
		t.Error("expected error for unencodable data, got nil")
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantErr  string
	}{
		{fmt.Errorf("%w: color required", apperrors.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
		{apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("lookup: %w", apperrors.ErrNotFound), http.StatusNotFound, "not_found"},
		{apperrors.ErrConflict, http.StatusConflict, "conflict"},
		{apperrors.ErrQueueBusy, http.StatusConflict, "busy"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.wantErr, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteServiceError(w, tt.err, zap.NewNop())

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response body: %v", err)
			}
			if body["error"] != tt.wantErr {
				t.Errorf("body[error] = %q, want %q", body["error"], tt.wantErr)
			}
			if tt.wantCode == http.StatusInternalServerError && strings.Contains(body["message"], "connection reset") {
				t.Error("internal error detail leaked to client")
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}

	req := httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader(`{"email":"a@example.com"}`))
	if err := DecodeJSON(req, &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.Email != "a@example.com" {
		t.Errorf("email = %q", dst.Email)
	}

	req = httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader(`{"email":"a@example.com","role":"admin"}`))
	if err := DecodeJSON(req, &dst); err == nil {
		t.Error("expected error for unknown field")
	}

	req = httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader(`not json`))
	if err := DecodeJSON(req, &dst); err == nil {
		t.Error("expected error for malformed body")
	}
}
