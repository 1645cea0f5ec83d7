package router

import (
	"errors"
	"fmt"
	"testing"
)

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "order not found" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestDeriveErrorCode(t *testing.T) {
	if got := deriveErrorCode(nil); got != "" {
		t.Fatalf("nil err code = %q", got)
	}
	if got := deriveErrorCode(fmt.Errorf("wrap: %w", codedErr{})); got != "ORDER_NOT_FOUND" {
		t.Fatalf("coded = %q", got)
	}
	if got := deriveErrorCode(fmt.Errorf("wrap: %w", &plainErr{})); got != "PLAINERR" {
		t.Fatalf("typed = %q", got)
	}
	if got := deriveErrorCode(errors.New("x")); got != "ERRORSTRING" {
		t.Fatalf("errors.New = %q", got)
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	cases := map[string]string{
		"":             "unknown",
		"/List":        "list",
		"update order": "update_order",
	}
	for in, want := range cases {
		if got := normalizeHandlerName(in); got != want {
			t.Errorf("normalizeHandlerName(%q) = %q, want %q", in, got, want)
		}
	}
}
