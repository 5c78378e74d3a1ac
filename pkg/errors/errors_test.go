package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	if meta := MetadataFor(CodeIncompleteCheckout); meta.HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatalf("incomplete checkout status = %d", meta.HTTPStatus)
	}
	if meta := MetadataFor(CodeOrderPlacement); !meta.Retryable || meta.HTTPStatus != http.StatusBadGateway {
		t.Fatalf("order placement metadata = %+v", meta)
	}
	if meta := MetadataFor(CodeOutOfStock); meta.HTTPStatus != http.StatusConflict {
		t.Fatalf("out of stock status = %d", meta.HTTPStatus)
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("socket closed")
	err := Wrap(CodeDependency, cause, "upstream died")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped cause must survive errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("code = %s", err.Code())
	}
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := New(CodeOutOfStock, "no stock").WithDetails(map[string]any{"available_quantity": 0})
	outer := fmt.Errorf("handler: %w", inner)

	typed := As(outer)
	if typed == nil || typed.Code() != CodeOutOfStock {
		t.Fatalf("As() = %v", typed)
	}
	if typed.Details() == nil {
		t.Fatal("details lost through wrapping")
	}

	if As(stdErrors.New("plain")) != nil {
		t.Fatal("plain errors must not type-assert")
	}
}
