package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

// SessionEnder ends an account's open session.
type SessionEnder interface {
	End(accountID string)
}

// AccountService implements the administrator account operations.
type AccountService struct {
	accounts ports.AccountRepository
	wallets  ports.WalletRepository
	sessions SessionEnder
	log      zerolog.Logger
}

var _ ports.AccountService = (*AccountService)(nil)

// NewAccountService creates an AccountService. sessions may be nil.
func NewAccountService(accounts ports.AccountRepository, wallets ports.WalletRepository, sessions SessionEnder, log zerolog.Logger) *AccountService {
	return &AccountService{accounts: accounts, wallets: wallets, sessions: sessions, log: log}
}

// ListAccounts returns every account ordered by class group, then id.
func (s *AccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.accounts.List(ctx)
}

// UpdateAccount overwrites the editable fields of a student account.
// Deactivating an account ends its open session.
func (s *AccountService) UpdateAccount(ctx context.Context, in ports.UpdateAccountInput) (*domain.Account, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	group := strings.ToUpper(strings.TrimSpace(in.ClassGroup))
	if name == "" || email == "" || group == "" {
		return nil, domain.ErrInvalidAccount
	}

	account, err := s.accounts.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if account.Admin {
		return nil, domain.ErrAdminImmutable
	}

	account.Name = name
	account.Email = email
	account.Active = in.Active
	account.ClassGroup = group
	account.UpdatedAt = time.Now().UTC()

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	if !account.Active && s.sessions != nil {
		s.sessions.End(account.ID)
	}

	s.log.Info().
		Str("account_id", account.ID).
		Bool("active", account.Active).
		Str("class_group", account.ClassGroup).
		Msg("account updated")
	return account, nil
}

// SetWallet overwrites an account's balance and/or ticket count. The write
// goes through the wallet store, so open sessions see it as a pushed
// snapshot.
func (s *AccountService) SetWallet(ctx context.Context, in ports.SetWalletInput) (*domain.Wallet, error) {
	if in.Balance == nil && in.Tickets == nil {
		return nil, domain.ErrInvalidAmount
	}
	if in.Balance != nil && in.Balance.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if in.Tickets != nil && *in.Tickets < 0 {
		return nil, domain.ErrInvalidTickets
	}

	if _, err := s.accounts.FindByID(ctx, in.AccountID); err != nil {
		return nil, err
	}

	w, err := s.wallets.UpsertWallet(ctx, in.AccountID, domain.WalletPatch{
		Balance: in.Balance,
		Tickets: in.Tickets,
	})
	if err != nil {
		return nil, fmt.Errorf("set wallet: %w", asGatewayError(err))
	}

	s.log.Info().
		Str("account_id", in.AccountID).
		Str("balance", w.Balance.StringFixed(2)).
		Int("tickets", w.Tickets).
		Msg("wallet set by administrator")
	return w, nil
}
