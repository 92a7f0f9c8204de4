package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{"plain", New(ErrSpaceNotCalled, "space not called"), "[1004] space not called"},
		{"debug", NewWithDebug(ErrCardNotFound, "card not found", "id=abc"), "[1006] card not found: id=abc"},
		{"wrapped", Wrap(fmt.Errorf("dial tcp"), ErrRedisError, "redis down"), "[1014] redis down [dial tcp]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetCodeAndIs(t *testing.T) {
	inner := New(ErrInsufficientCredits, "not enough credits")
	outer := fmt.Errorf("begin round: %w", inner)

	if got := GetCode(outer); got != ErrInsufficientCredits {
		t.Errorf("GetCode() = %d, want %d", got, ErrInsufficientCredits)
	}
	if !Is(outer, ErrInsufficientCredits) {
		t.Error("Is() should find the wrapped code")
	}
	if Is(outer, ErrRoundInProgress) {
		t.Error("Is() matched an unrelated code")
	}
	if !IsAppError(outer) {
		t.Error("IsAppError() should see through fmt wrapping")
	}
	if GetCode(stderrors.New("boom")) != ErrInternalServerError {
		t.Error("plain errors should map to internal server error")
	}
	if GetCode(nil) != 0 {
		t.Error("nil error should have code 0")
	}

	chained := Wrap(New(ErrStoreError, "store"), ErrCorruptData, "corrupt")
	if !Is(chained, ErrStoreError) || !Is(chained, ErrCorruptData) {
		t.Error("Is() should walk nested AppErrors")
	}
}

func TestAsAppError(t *testing.T) {
	outer := fmt.Errorf("mark: %w", Wrap(stderrors.New("io"), ErrStoreError, "store"))
	appErr, ok := AsAppError(outer)
	if !ok || appErr.Code != ErrStoreError {
		t.Errorf("AsAppError() = %v, %v; want code %d", appErr, ok, ErrStoreError)
	}
	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("AsAppError() matched a plain error")
	}
}

func TestHTTPStatusFromCode(t *testing.T) {
	tests := map[int]int{
		ErrInvalidRequest:      http.StatusBadRequest,
		ErrInsufficientCredits: http.StatusUnprocessableEntity,
		ErrRoundInProgress:     http.StatusConflict,
		ErrCardNotFound:        http.StatusNotFound,
		ErrPurchaseError:       http.StatusBadGateway,
		ErrStoreError:          http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := HTTPStatusFromCode(code); got != want {
			t.Errorf("HTTPStatusFromCode(%d) = %d, want %d", code, got, want)
		}
	}
}
