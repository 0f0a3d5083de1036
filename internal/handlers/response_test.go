package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/cartographai/discovery-backend/internal/pkg/errors"
	"github.com/cartographai/discovery-backend/internal/platform/apierr"
)

func respond(t *testing.T, err error) (int, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondServiceError(c, "fallback_code", err)

	var env ErrorEnvelope
	if decodeErr := json.Unmarshal(rec.Body.Bytes(), &env); decodeErr != nil {
		t.Fatalf("decode envelope: %v; body=%s", decodeErr, rec.Body.String())
	}
	return rec.Code, env
}

func TestRespondServiceErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", fmt.Errorf("session: %w", pkgerrors.ErrNotFound), http.StatusNotFound},
		{"invalid argument", fmt.Errorf("threshold: %w", pkgerrors.ErrInvalidArgument), http.StatusBadRequest},
		{"conflict", fmt.Errorf("roster locked: %w", pkgerrors.ErrConflict), http.StatusConflict},
		{"unclassified", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, env := respond(t, tc.err)
		if status != tc.wantStatus {
			t.Fatalf("%s: status = %d, want %d", tc.name, status, tc.wantStatus)
		}
		if env.Error.Code != "fallback_code" {
			t.Fatalf("%s: code = %q", tc.name, env.Error.Code)
		}
	}
}

func TestRespondServiceErrorHonorsStatusCodedErrors(t *testing.T) {
	err := fmt.Errorf("load activities: %w",
		apierr.New(http.StatusBadGateway, "occupation_catalog_unavailable", fmt.Errorf("connection refused")))

	status, env := respond(t, err)
	if status != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", status, http.StatusBadGateway)
	}
	// The wrapped error's own code wins over the caller's.
	if env.Error.Code != "occupation_catalog_unavailable" {
		t.Fatalf("code = %q", env.Error.Code)
	}
}
