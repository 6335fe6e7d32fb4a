package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

func TestAdminHandler_ListAccounts(t *testing.T) {
	accounts := &stubAccountService{
		listFn: func(ctx context.Context) ([]domain.Account, error) {
			return nil, nil
		},
	}
	rec := serve(t, NewAdminHandler(accounts).ListAccounts, request{method: http.MethodGet, target: "/v1/admin/accounts"})
	expectStatus(t, rec, http.StatusOK)
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array, got %q", body)
	}
}

func TestAdminHandler_UpdateAccount(t *testing.T) {
	var got ports.UpdateAccountInput
	accounts := &stubAccountService{
		updateFn: func(ctx context.Context, in ports.UpdateAccountInput) (*domain.Account, error) {
			got = in
			if in.ID == "admin" {
				return nil, domain.ErrAdminImmutable
			}
			return &domain.Account{ID: in.ID, Name: in.Name, Active: in.Active}, nil
		},
	}
	h := NewAdminHandler(accounts)

	rec := serve(t, h.UpdateAccount, request{
		method: http.MethodPatch,
		target: "/v1/admin/accounts/a1",
		body:   `{"name":"Ana","email":"ana@school.org","active":false,"class_group":"3B"}`,
		params: map[string]string{"id": "a1"},
	})
	expectStatus(t, rec, http.StatusOK)
	if got.ID != "a1" || got.Active || got.ClassGroup != "3B" {
		t.Fatalf("unexpected input: %+v", got)
	}

	rec = serve(t, h.UpdateAccount, request{
		method: http.MethodPatch,
		target: "/v1/admin/accounts/admin",
		body:   `{"name":"Root","email":"root@school.org","active":true,"class_group":"X"}`,
		params: map[string]string{"id": "admin"},
	})
	expectStatus(t, rec, http.StatusForbidden)

	rec = serve(t, h.UpdateAccount, request{
		method: http.MethodPatch,
		target: "/v1/admin/accounts/a1",
		body:   `{"name":"Ana","email":"ana@school.org","class_group":"3B"}`,
		params: map[string]string{"id": "a1"},
	})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestAdminHandler_SetWallet(t *testing.T) {
	var got ports.SetWalletInput
	accounts := &stubAccountService{
		setWalletFn: func(ctx context.Context, in ports.SetWalletInput) (*domain.Wallet, error) {
			got = in
			if in.Balance == nil && in.Tickets == nil {
				return nil, domain.ErrInvalidAmount
			}
			return &domain.Wallet{AccountID: in.AccountID, Balance: *in.Balance, Tickets: 0}, nil
		},
	}
	h := NewAdminHandler(accounts)

	rec := serve(t, h.SetWallet, request{
		method: http.MethodPut,
		target: "/v1/admin/accounts/a1/wallet",
		body:   `{"balance":"50"}`,
		params: map[string]string{"id": "a1"},
	})
	expectStatus(t, rec, http.StatusOK)
	if got.AccountID != "a1" || got.Balance == nil || !got.Balance.Equal(dec("50")) || got.Tickets != nil {
		t.Fatalf("unexpected input: %+v", got)
	}
	var resp walletResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Balance != "50.00" {
		t.Fatalf("unexpected balance %q", resp.Balance)
	}

	rec = serve(t, h.SetWallet, request{
		method: http.MethodPut,
		target: "/v1/admin/accounts/a1/wallet",
		body:   `{}`,
		params: map[string]string{"id": "a1"},
	})
	expectStatus(t, rec, http.StatusBadRequest)
}
