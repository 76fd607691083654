package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateBankName(t *testing.T) {
	t.Parallel()

	if err := ValidateBankName("ABC Bank"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := ValidateBankName("   "); !errors.Is(err, ErrInvalidBankName) {
		t.Fatalf("expected ErrInvalidBankName for blank name, got %v", err)
	}

	if err := ValidateBankName(strings.Repeat("b", MaxBankNameLength+1)); !errors.Is(err, ErrInvalidBankName) {
		t.Fatalf("expected ErrInvalidBankName for long name, got %v", err)
	}
}

func TestValidateBranchAddress(t *testing.T) {
	t.Parallel()

	t.Run("valid address", func(t *testing.T) {
		if err := ValidateBranchAddress("North Ave"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("empty address rejected", func(t *testing.T) {
		err := ValidateBranchAddress("")
		if !errors.Is(err, ErrInvalidBranchAddress) || !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrInvalidBranchAddress, got %v", err)
		}
	})

	t.Run("fifteen characters allowed", func(t *testing.T) {
		if err := ValidateBranchAddress(strings.Repeat("a", 15)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("sixteen characters rejected", func(t *testing.T) {
		if err := ValidateBranchAddress(strings.Repeat("a", 16)); !errors.Is(err, ErrInvalidBranchAddress) {
			t.Fatalf("expected ErrInvalidBranchAddress, got %v", err)
		}
	})
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{name: "positive", amount: "10.50"},
		{name: "minimum", amount: "0.01"},
		{name: "trailing zeros beyond scale", amount: "10.500"},
		{name: "zero", amount: "0", wantErr: ErrInvalidAmount},
		{name: "negative", amount: "-5", wantErr: ErrInvalidAmount},
		{name: "too precise", amount: "1.005", wantErr: ErrAmountPrecision},
		{name: "too large", amount: "1000000000000.01", wantErr: ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateOpeningBalance(t *testing.T) {
	t.Parallel()

	if err := ValidateOpeningBalance(decimal.Zero); err != nil {
		t.Fatalf("zero opening balance should be allowed, got %v", err)
	}
	if err := ValidateOpeningBalance(decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative opening balance should be rejected, got %v", err)
	}
}

func TestValidateLimit(t *testing.T) {
	t.Parallel()

	if got := ValidateLimit(0); got != 100 {
		t.Fatalf("expected default 100, got %d", got)
	}
	if got := ValidateLimit(5000); got != 1000 {
		t.Fatalf("expected cap 1000, got %d", got)
	}
	if got := ValidateLimit(25); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	cases := map[error]error{
		ErrBankNotFound:       ErrNotFound,
		ErrDuplicateAccountNo: ErrConflict,
		ErrAccountNoTooLong:   ErrValidation,
		ErrExpiredToken:       ErrUnauthorized,
	}

	for err, kind := range cases {
		wrapped := errors.Join(errors.New("context"), err)
		if !errors.Is(wrapped, kind) {
			t.Fatalf("%v should classify as %v", err, kind)
		}
	}
}
