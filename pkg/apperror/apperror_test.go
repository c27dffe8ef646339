package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	base := Validation("titulo", "is required")
	wrapped := fmt.Errorf("create solicitud: %w", base)

	if got := KindOf(wrapped); got != KindValidation {
		t.Fatalf("expected %s, got %s", KindValidation, got)
	}
	if !Is(wrapped, KindValidation) {
		t.Fatal("expected Is to match validation kind")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatal("plain errors must be internal")
	}
	if Is(nil, KindInternal) {
		t.Fatal("nil error must not match any kind")
	}
}

func TestErrorMessageIncludesField(t *testing.T) {
	err := Validation("productos", "Stock insuficiente para %s. Disponible: %d", "Silla", 3)
	if err.Error() != "productos: Stock insuficiente para Silla. Disponible: 3" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if Forbidden("denied").Error() != "denied" {
		t.Fatalf("unexpected message %q", Forbidden("denied").Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:    http.StatusBadRequest,
		KindStateConflict: http.StatusConflict,
		KindNotFound:      http.StatusNotFound,
		KindForbidden:     http.StatusForbidden,
		KindInternal:      http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", kind, got, want)
		}
	}
}
