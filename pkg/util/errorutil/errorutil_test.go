package errorutil

import (
	"errors"
	"net/http"
	"testing"
)

func TestFromHTTPStatus(t *testing.T) {
	cases := []struct {
		status     int
		wantCode   string
		wantStatus int
	}{
		{http.StatusNotFound, CodeNotFound, http.StatusNotFound},
		{http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed},
		{http.StatusBadRequest, CodeValidation, http.StatusBadRequest},
		{http.StatusRequestEntityTooLarge, "REQUEST_ENTITY_TOO_LARGE", http.StatusRequestEntityTooLarge},
		{http.StatusServiceUnavailable, CodeInternal, http.StatusServiceUnavailable},
		{200, CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got := FromHTTPStatus(tc.status, "")
		if got.Code != tc.wantCode || got.HTTPStatus != tc.wantStatus {
			t.Errorf("FromHTTPStatus(%d) = %s/%d, want %s/%d", tc.status, got.Code, got.HTTPStatus, tc.wantCode, tc.wantStatus)
		}
		if got.Message == "" {
			t.Errorf("FromHTTPStatus(%d) has empty message", tc.status)
		}
	}
}

func TestToDomainErrorKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	got := ToDomainError(NewPersistenceFailure(cause))
	if got.Code != CodePersistenceFailure || !errors.Is(got, cause) {
		t.Fatalf("unexpected %+v", got)
	}
	if ToDomainError(cause).Code != CodeInternal {
		t.Fatalf("plain errors map to INTERNAL_ERROR")
	}
}
