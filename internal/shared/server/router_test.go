package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"resume-formatter/internal/services/health"
)

func TestRouterServesHealthAndMetrics(t *testing.T) {
	r := NewRouter(health.NewService(nil))

	for path, want := range map[string]string{
		"/healthz": `"ok":true`,
		"/readyz":  `"ok":true`,
		"/metrics": "documents_processed_total",
	} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
		if !strings.Contains(resp.Body.String(), want) {
			t.Fatalf("%s: expected body to contain %q, got %s", path, want, resp.Body.String())
		}
	}
}

func TestReadyzReportsDatabaseFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("down"))

	resp := httptest.NewRecorder()
	NewRouter(health.NewService(db)).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "not_ready") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9090": ":9090", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
