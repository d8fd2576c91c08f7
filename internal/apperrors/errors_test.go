package apperrors

import (
	"errors"
	"testing"
)

func TestGameError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *GameError
		want string
	}{
		{
			name: "error without underlying error",
			err:  New(Precondition, "out of range"),
			want: "[precondition] out of range",
		},
		{
			name: "error with underlying error",
			err:  Wrap(LedgerTransient, "mint timed out", errors.New("context deadline exceeded")),
			want: "[ledger_transient] mint timed out: context deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGameError_Unwrap(t *testing.T) {
	underlying := errors.New("rpc error")
	err := Wrap(LedgerPermanent, "burn rejected", underlying)

	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}
}

func TestGameError_WithDetails(t *testing.T) {
	err := New(Validation, "bad request").WithDetails("field", "zoneId").WithDetails("reason", "unknown zone")

	if len(err.Details) != 2 {
		t.Errorf("Details length = %d, want 2", len(err.Details))
	}
	if err.Details["field"] != "zoneId" {
		t.Errorf("Details[field] = %v, want zoneId", err.Details["field"])
	}
	if err.Details["reason"] != "unknown zone" {
		t.Errorf("Details[reason] = %v, want %q", err.Details["reason"], "unknown zone")
	}
}

func TestAs(t *testing.T) {
	base := PreconditionError("pickaxe broken")
	wrapped := errors.New("dispatcher: " + base.Error())

	if _, ok := As(wrapped); ok {
		t.Errorf("As() should not recover a GameError from a plain wrapped string")
	}

	if ge, ok := As(base); !ok || ge != base {
		t.Errorf("As() should recover the original GameError pointer")
	}
}

func TestIs(t *testing.T) {
	err := ConflictError("already in party")
	if !Is(err, Conflict) {
		t.Errorf("Is(err, Conflict) = false, want true")
	}
	if Is(err, Precondition) {
		t.Errorf("Is(err, Precondition) = true, want false")
	}
}

func TestConstructors(t *testing.T) {
	if got := ValidationError("x").Kind; got != Validation {
		t.Errorf("ValidationError Kind = %v, want %v", got, Validation)
	}
	if got := AuthorizationError("x").Kind; got != Authorization {
		t.Errorf("AuthorizationError Kind = %v, want %v", got, Authorization)
	}
	if got := PreconditionError("x").Kind; got != Precondition {
		t.Errorf("PreconditionError Kind = %v, want %v", got, Precondition)
	}
	if got := ConflictError("x").Kind; got != Conflict {
		t.Errorf("ConflictError Kind = %v, want %v", got, Conflict)
	}
	if got := InternalError("x", nil).Kind; got != Internal {
		t.Errorf("InternalError Kind = %v, want %v", got, Internal)
	}

	ledgerErr := errors.New("timeout")
	if got := LedgerTransientError("mintItem", ledgerErr); got.Kind != LedgerTransient {
		t.Errorf("LedgerTransientError Kind = %v, want %v", got.Kind, LedgerTransient)
	} else if got.Details["operation"] != "mintItem" {
		t.Errorf("LedgerTransientError Details[operation] = %v, want mintItem", got.Details["operation"])
	}

	if got := LedgerPermanentError("burnItem", ledgerErr); got.Kind != LedgerPermanent {
		t.Errorf("LedgerPermanentError Kind = %v, want %v", got.Kind, LedgerPermanent)
	}
}
