package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestKindOf(t *testing.T) {
	err := New(NotFound, "patient %d not found", 7)
	if KindOf(err) != NotFound {
		t.Errorf("expected NotFound, got %v", KindOf(err))
	}
	if KindOf(errors.New("plain")) != Internal {
		t.Error("unclassified errors should map to Internal")
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := New(Conflict, "email already taken")
	outer := fmt.Errorf("updating patient: %w", inner)
	if !Is(outer, Conflict) {
		t.Error("kind should survive wrapping")
	}
}

func TestHTTP_StatusMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Invalid, http.StatusBadRequest},
		{Conflict, http.StatusBadRequest},
		{NotFound, http.StatusNotFound},
		{Unauthenticated, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{Internal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		he, ok := HTTP(New(tc.kind, "boom")).(*echo.HTTPError)
		if !ok {
			t.Fatalf("expected *echo.HTTPError for kind %v", tc.kind)
		}
		if he.Code != tc.want {
			t.Errorf("kind %v: expected %d, got %d", tc.kind, tc.want, he.Code)
		}
	}
}

func TestHTTP_PassesThroughHTTPError(t *testing.T) {
	orig := echo.NewHTTPError(http.StatusTeapot, "short and stout")
	if got := HTTP(orig); got != orig {
		t.Error("existing HTTP errors should pass through unchanged")
	}
}
