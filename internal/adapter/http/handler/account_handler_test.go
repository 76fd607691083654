package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/cashbook/internal/adapter/http/dto"
	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/usecase"
)

type accountServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	updateFn func(ctx context.Context, code int64, input usecase.UpdateAccountInput) (*domain.Account, error)
	getFn    func(ctx context.Context, code int64) (*domain.Account, error)
	listFn   func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	deleteFn func(ctx context.Context, code int64) error
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) UpdateAccount(ctx context.Context, code int64, input usecase.UpdateAccountInput) (*domain.Account, error) {
	return s.updateFn(ctx, code, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, code int64) (*domain.Account, error) {
	return s.getFn(ctx, code)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	return s.listFn(ctx, input)
}

func (s *accountServiceStub) DeleteAccount(ctx context.Context, code int64) error {
	return s.deleteFn(ctx, code)
}

type accountEnvelope struct {
	Status  string              `json:"status"`
	Account dto.AccountResponse `json:"account"`
}

func TestAccountHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateAccountInput
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return &domain.Account{
				Code:      11,
				AccountNo: "SAV001 Main St ABC Bank",
				Prefix:    "SAV001",
				Balance:   input.OpeningBalance,
				Active:    input.Active,
			}, nil
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{BranchCode: 7, Prefix: "SAV001", OpeningBalance: decimal.NewFromInt(500)})
	req := setChiURLParam(httptest.NewRequest(http.MethodPost, "/api/banks/3/accounts", bytes.NewReader(body)), "bankCode", "3")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.BankCode != 3 || captured.BranchCode != 7 || !captured.Active {
		t.Fatalf("expected input to match request, got %+v", captured)
	}
	if !captured.OpeningBalance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected opening balance 500, got %s", captured.OpeningBalance)
	}

	var resp accountEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "success" || resp.Account.AccountNo != "SAV001 Main St ABC Bank" || resp.Account.CashInBank != "500.00" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_Create_NumericOpeningBalance(t *testing.T) {
	var captured usecase.CreateAccountInput
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return &domain.Account{Code: 11, Balance: input.OpeningBalance}, nil
		},
	})

	body := `{"branch_code":7,"prefix":"SAV001","opening_balance":80.5}`
	req := setChiURLParam(httptest.NewRequest(http.MethodPost, "/api/banks/3/accounts", bytes.NewBufferString(body)), "bankCode", "3")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !captured.OpeningBalance.Equal(decimal.RequireFromString("80.5")) {
		t.Fatalf("expected opening balance 80.5, got %s", captured.OpeningBalance)
	}
}

func TestAccountHandler_Create_InvalidPayload(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			t.Fatal("CreateAccount should not be called for invalid payload")
			return nil, nil
		},
	})

	for _, body := range []string{"{invalid json", `{"prefix":"SAV001"}`, `{"branch_code":7,"prefix":"SAV001","opening_balance":"lots"}`} {
		req := setChiURLParam(httptest.NewRequest(http.MethodPost, "/api/banks/3/accounts", bytes.NewBufferString(body)), "bankCode", "3")
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rec.Code)
		}
	}
}

func TestAccountHandler_Create_Duplicate(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			return nil, domain.ErrDuplicateAccountNo
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{BranchCode: 7, Prefix: "SAV001"})
	req := setChiURLParam(httptest.NewRequest(http.MethodPost, "/api/banks/3/accounts", bytes.NewReader(body)), "bankCode", "3")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "error" || resp.Message != "account number already exists" {
		t.Fatalf("unexpected error body %+v", resp)
	}
}

func TestAccountHandler_Update(t *testing.T) {
	t.Run("bank code from URL", func(t *testing.T) {
		var gotCode int64
		var gotInput usecase.UpdateAccountInput
		handler := NewAccountHandler(&accountServiceStub{
			updateFn: func(ctx context.Context, code int64, input usecase.UpdateAccountInput) (*domain.Account, error) {
				gotCode, gotInput = code, input
				return &domain.Account{Code: code}, nil
			},
		})

		body := `{"branch_code":7,"prefix":"SAV002","active":false}`
		req := httptest.NewRequest(http.MethodPut, "/api/banks/3/accounts/11", bytes.NewBufferString(body))
		req = setChiURLParam(setChiURLParam(req, "bankCode", "3"), "accountCode", "11")
		rec := httptest.NewRecorder()

		handler.Update(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotCode != 11 || gotInput.BankCode != 3 || gotInput.Active {
			t.Fatalf("unexpected update call code=%d input=%+v", gotCode, gotInput)
		}
	})

	t.Run("bank code from body", func(t *testing.T) {
		handler := NewAccountHandler(&accountServiceStub{
			updateFn: func(ctx context.Context, code int64, input usecase.UpdateAccountInput) (*domain.Account, error) {
				if input.BankCode != 4 {
					t.Fatalf("expected bank code from body, got %d", input.BankCode)
				}
				return &domain.Account{Code: code}, nil
			},
		})

		body := `{"bank_code":4,"branch_code":7,"prefix":"SAV002"}`
		req := setChiURLParam(httptest.NewRequest(http.MethodPut, "/api/accounts/11", bytes.NewBufferString(body)), "accountCode", "11")
		rec := httptest.NewRecorder()

		handler.Update(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("no bank code leaves it to the branch", func(t *testing.T) {
		var gotInput usecase.UpdateAccountInput
		handler := NewAccountHandler(&accountServiceStub{
			updateFn: func(ctx context.Context, code int64, input usecase.UpdateAccountInput) (*domain.Account, error) {
				gotInput = input
				return &domain.Account{Code: code, BankCode: 3}, nil
			},
		})

		body := `{"branch_code":7,"prefix":"SAV002"}`
		req := setChiURLParam(httptest.NewRequest(http.MethodPut, "/api/accounts/11", bytes.NewBufferString(body)), "accountCode", "11")
		rec := httptest.NewRecorder()

		handler.Update(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotInput.BankCode != 0 || gotInput.BranchCode != 7 {
			t.Fatalf("expected branch-only update, got %+v", gotInput)
		}
	})

	t.Run("negative bank code", func(t *testing.T) {
		handler := NewAccountHandler(&accountServiceStub{
			updateFn: func(ctx context.Context, code int64, input usecase.UpdateAccountInput) (*domain.Account, error) {
				t.Fatal("UpdateAccount should not be called")
				return nil, nil
			},
		})

		body := `{"bank_code":-1,"branch_code":7,"prefix":"SAV002"}`
		req := setChiURLParam(httptest.NewRequest(http.MethodPut, "/api/accounts/11", bytes.NewBufferString(body)), "accountCode", "11")
		rec := httptest.NewRecorder()

		handler.Update(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_Get(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, code int64) (*domain.Account, error) {
			if code != 11 {
				t.Fatalf("expected code 11, got %d", code)
			}
			return &domain.Account{Code: 11}, nil
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/api/accounts/11", nil), "accountCode", "11")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_Get_Errors(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, code int64) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/api/accounts/11", nil), "accountCode", "11")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	req = setChiURLParam(httptest.NewRequest(http.MethodGet, "/api/accounts/x", nil), "accountCode", "x")
	rec = httptest.NewRecorder()
	handler.Get(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed code, got %d", rec.Code)
	}
}

func TestAccountHandler_List(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
			if input.BranchCode != 7 {
				t.Fatalf("expected branchCode=7, got %+v", input)
			}
			return []*domain.Account{{Code: 1}, {Code: 2}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts?branchCode=7", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Accounts []dto.AccountResponse `json:"accounts"`
		Total    int                   `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Accounts) != 2 || resp.Total != 2 {
		t.Fatalf("expected 2 accounts, got %+v", resp)
	}
}

func TestAccountHandler_ListByBank(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
			if input.BankCode != 3 || input.BranchCode != 0 {
				t.Fatalf("expected bank listing, got %+v", input)
			}
			return nil, nil
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/api/banks/3/accounts", nil), "bankCode", "3")
	rec := httptest.NewRecorder()

	handler.ListByBank(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_Delete(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		deleteFn: func(ctx context.Context, code int64) error {
			return errors.New("connection reset")
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/accounts/11", nil), "accountCode", "11")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
