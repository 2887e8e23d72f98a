package controller

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"calsync/core/errors"

	"github.com/labstack/echo/v4"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestErrorResponseMapsAppErrorCodes(t *testing.T) {
	cases := []struct {
		code errors.ErrorCode
		want int
	}{
		{errors.ErrInvalidInput, http.StatusBadRequest},
		{errors.ErrInvalidRequestData, http.StatusBadRequest},
		{errors.ErrUnauthorized, http.StatusUnauthorized},
		{errors.ErrTokenExpired, http.StatusUnauthorized},
		{errors.ErrForbidden, http.StatusForbidden},
		{errors.ErrNotFound, http.StatusNotFound},
		{errors.ErrAlreadyExists, http.StatusConflict},
		{errors.ErrInternalServer, http.StatusInternalServerError},
	}

	base := NewBaseController()
	for _, tc := range cases {
		ctx, rec := newTestContext(t)
		if err := base.ErrorResponse(ctx, errors.NewAppError(tc.code, "it broke", nil)); err != nil {
			t.Fatalf("%s: ErrorResponse returned %v", tc.code, err)
		}
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.code, rec.Code, tc.want)
		}
		if !strings.Contains(rec.Body.String(), string(tc.code)) {
			t.Errorf("%s: body does not carry the app code: %s", tc.code, rec.Body.String())
		}
	}
}

func TestErrorResponsePlainErrorIsInternal(t *testing.T) {
	ctx, rec := newTestContext(t)
	base := NewBaseController()

	if err := base.ErrorResponse(ctx, stderrors.New("disk on fire")); err != nil {
		t.Fatalf("ErrorResponse returned %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(rec.Body.String(), string(errors.ErrInternalServer)) {
		t.Errorf("body does not carry the internal error code: %s", rec.Body.String())
	}
}

func TestSuccessResponseEnvelope(t *testing.T) {
	ctx, rec := newTestContext(t)
	base := NewBaseController()

	if err := base.SuccessResponse(ctx, map[string]string{"hello": "world"}, "Retrieved successfully"); err != nil {
		t.Fatalf("SuccessResponse returned %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp SuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("envelope status = %d, want %d", resp.Status, http.StatusOK)
	}
	if resp.Message != "Retrieved successfully" {
		t.Errorf("envelope message = %q", resp.Message)
	}
	if resp.Timestamp.IsZero() {
		t.Error("envelope timestamp is zero")
	}
}

func TestNewErrorResponseStatus(t *testing.T) {
	base := NewBaseController()

	cases := []struct {
		name string
		err  *echo.HTTPError
		want int
	}{
		{"bad request", base.BadRequest(errors.ErrInvalidInput, "bad"), http.StatusBadRequest},
		{"unauthorized", base.Unauthorized(errors.ErrUnauthorized, "no"), http.StatusUnauthorized},
		{"not found", base.NotFound(errors.ErrNotFound, "gone"), http.StatusNotFound},
		{"internal", base.InternalServerError(errors.ErrInternalServer, "boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if tc.err.Code != tc.want {
			t.Errorf("%s: code = %d, want %d", tc.name, tc.err.Code, tc.want)
		}
	}
}
