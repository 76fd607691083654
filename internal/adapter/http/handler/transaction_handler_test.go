package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cashbook/internal/adapter/http/middleware"
	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/usecase"
)

type ledgerServiceStub struct {
	LedgerService
	postFn  func(ctx context.Context, input usecase.PostTransactionInput, user domain.ActingUser) (*usecase.PostTransactionResult, error)
	listFn  func(ctx context.Context, filter domain.EntryFilter) ([]*domain.EntryView, error)
	yearsFn func(ctx context.Context) ([]int, error)
}

func (s *ledgerServiceStub) PostTransaction(ctx context.Context, input usecase.PostTransactionInput, user domain.ActingUser) (*usecase.PostTransactionResult, error) {
	return s.postFn(ctx, input, user)
}

func (s *ledgerServiceStub) ListTransactions(ctx context.Context, filter domain.EntryFilter) ([]*domain.EntryView, error) {
	return s.listFn(ctx, filter)
}

func (s *ledgerServiceStub) TransactionYears(ctx context.Context) ([]int, error) {
	return s.yearsFn(ctx)
}

func (s *ledgerServiceStub) ListParticulars(ctx context.Context) ([]*domain.Particular, error) {
	return []*domain.Particular{{ID: 1, Code: "DEP", Name: "Deposit", Credit: true}}, nil
}

func (s *ledgerServiceStub) ListExpenses(ctx context.Context) ([]*domain.ExpenseCategory, error) {
	return []*domain.ExpenseCategory{{Code: 1, Name: "Rent", Active: true}}, nil
}

const postBody = `{"account_code":11,"particular":"Withdrawal","amount":"50.25","notes":"petty cash","user_code":99}`

func TestTransactionHandler_Post(t *testing.T) {
	committedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	var gotInput usecase.PostTransactionInput
	var gotUser domain.ActingUser
	h := NewTransactionHandler(&ledgerServiceStub{
		postFn: func(ctx context.Context, input usecase.PostTransactionInput, user domain.ActingUser) (*usecase.PostTransactionResult, error) {
			gotInput, gotUser = input, user
			entry := domain.NewEntry(domain.DirectionDebit, input.Amount)
			entry.Reference = "01HZREF"
			entry.AccountCode = input.AccountCode
			return &usecase.PostTransactionResult{
				Entry:      entry,
				NewBalance: decimal.RequireFromString("149.75"),
				Timestamp:  committedAt,
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString(postBody))
	req = req.WithContext(middleware.WithUser(req.Context(), domain.ActingUser{Code: 42}))
	rec := httptest.NewRecorder()
	h.Post(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, int64(11), gotInput.AccountCode)
	assert.True(t, gotInput.Amount.Equal(decimal.RequireFromString("50.25")))
	assert.Equal(t, int64(42), gotUser.Code, "token user wins over the body")

	tx := decodeBody(t, rec)["transaction"].(map[string]any)
	assert.Equal(t, "01HZREF", tx["reference"])
	assert.Equal(t, "debit", tx["direction"])
	assert.Equal(t, "50.25", tx["amount"])
	assert.Equal(t, "149.75", tx["remaining_balance"])
	assert.Equal(t, "2026-03-14", tx["date"])
	assert.Equal(t, "09:30:00", tx["time"])
}

func TestTransactionHandler_Post_NumericAmount(t *testing.T) {
	var gotInput usecase.PostTransactionInput
	h := NewTransactionHandler(&ledgerServiceStub{
		postFn: func(ctx context.Context, input usecase.PostTransactionInput, user domain.ActingUser) (*usecase.PostTransactionResult, error) {
			gotInput = input
			return &usecase.PostTransactionResult{Entry: domain.NewEntry(domain.DirectionCredit, input.Amount)}, nil
		},
	})

	body := `{"account_code":11,"particular":"Deposit","amount":80,"user_code":7}`
	rec := httptest.NewRecorder()
	h.Post(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, gotInput.Amount.Equal(decimal.NewFromInt(80)))
}

func TestTransactionHandler_Post_UserFromBodyWithoutAuth(t *testing.T) {
	var gotUser domain.ActingUser
	h := NewTransactionHandler(&ledgerServiceStub{
		postFn: func(ctx context.Context, input usecase.PostTransactionInput, user domain.ActingUser) (*usecase.PostTransactionResult, error) {
			gotUser = user
			return &usecase.PostTransactionResult{Entry: domain.NewEntry(domain.DirectionCredit, input.Amount)}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Post(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString(postBody)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(99), gotUser.Code)
}

func TestTransactionHandler_Post_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"bad amount", `{"account_code":11,"particular":"Deposit","amount":"ten"}`, nil, http.StatusBadRequest},
		{"missing particular", `{"account_code":11,"amount":"10"}`, nil, http.StatusBadRequest},
		{"missing amount", `{"account_code":11,"particular":"Deposit"}`, nil, http.StatusBadRequest},
		{"insufficient funds", postBody, domain.ErrInsufficientFunds, http.StatusBadRequest},
		{"inactive account", postBody, domain.ErrAccountInactive, http.StatusBadRequest},
		{"unknown account", postBody, domain.ErrAccountNotFound, http.StatusNotFound},
		{"store down", postBody, domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTransactionHandler(&ledgerServiceStub{
				postFn: func(ctx context.Context, input usecase.PostTransactionInput, user domain.ActingUser) (*usecase.PostTransactionResult, error) {
					if tt.err == nil {
						t.Fatal("PostTransaction should not be called")
					}
					return nil, tt.err
				},
			})

			rec := httptest.NewRecorder()
			h.Post(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "error", decodeBody(t, rec)["status"])
		})
	}
}

func TestTransactionHandler_List(t *testing.T) {
	var gotFilter domain.EntryFilter
	h := NewTransactionHandler(&ledgerServiceStub{
		listFn: func(ctx context.Context, filter domain.EntryFilter) ([]*domain.EntryView, error) {
			gotFilter = filter
			view := &domain.EntryView{Entry: *domain.NewEntry(domain.DirectionCredit, decimal.NewFromInt(20)), Particular: "Deposit"}
			return []*domain.EntryView{view}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/transactions?startDate=2026-01-01&endDate=2026-01-31&accountCode=11&limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotFilter.StartDate)
	require.NotNil(t, gotFilter.EndDate)
	assert.Equal(t, "2026-01-01", gotFilter.StartDate.Format(time.DateOnly))
	assert.Equal(t, "2026-01-31", gotFilter.EndDate.Format(time.DateOnly))
	assert.Equal(t, int64(11), gotFilter.AccountCode)
	assert.Equal(t, 5, gotFilter.Limit)

	body := decodeBody(t, rec)
	assert.EqualValues(t, 1, body["total"])
	tx := body["transactions"].([]any)[0].(map[string]any)
	assert.Equal(t, "20.00", tx["credit"])
	assert.Nil(t, tx["debit"])
}

func TestTransactionHandler_List_BadDate(t *testing.T) {
	h := NewTransactionHandler(&ledgerServiceStub{})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/transactions?startDate=01/02/2026", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "startDate must be YYYY-MM-DD")
}

func TestTransactionHandler_Years(t *testing.T) {
	h := NewTransactionHandler(&ledgerServiceStub{
		yearsFn: func(ctx context.Context) ([]int, error) { return nil, nil },
	})

	rec := httptest.NewRecorder()
	h.Years(rec, httptest.NewRequest(http.MethodGet, "/api/transactions/years", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decodeBody(t, rec)["years"])
}

func TestTransactionHandler_Directories(t *testing.T) {
	h := NewTransactionHandler(&ledgerServiceStub{})

	rec := httptest.NewRecorder()
	h.Particulars(rec, httptest.NewRequest(http.MethodGet, "/api/particulars", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	particular := decodeBody(t, rec)["particulars"].([]any)[0].(map[string]any)
	assert.Equal(t, "Deposit", particular["particular"])
	assert.Equal(t, true, particular["credit"])

	rec = httptest.NewRecorder()
	h.Expenses(rec, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	expense := decodeBody(t, rec)["expenses"].([]any)[0].(map[string]any)
	assert.Equal(t, "Rent", expense["expenses"])
}
