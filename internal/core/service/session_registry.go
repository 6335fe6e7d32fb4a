package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/schoolcanteen/canteen-system/internal/api/metrics"
	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

// Session is the per-account state that lives between login and logout.
type Session struct {
	AccountID string
	Wallet    *WalletManager
	Cart      *Cart
	OpenedAt  time.Time

	// busy is held by cart mutations and for the whole of a checkout, so a
	// cart is priced and paid at most once.
	busy sync.Mutex
}

// sessionOpenTimeout bounds the shared wallet load of Open.
const sessionOpenTimeout = 10 * time.Second

// SessionRegistry keeps at most one Session per account.
type SessionRegistry struct {
	wallets         ports.WalletRepository
	feed            ports.WalletFeed
	accounts        ports.AccountRepository
	accrualInterval time.Duration
	log             zerolog.Logger

	group    singleflight.Group
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry creates an empty registry. A non-positive
// accrualInterval disables timer-driven ticket accrual. When accounts is not
// nil, sessions only open for active accounts.
func NewSessionRegistry(wallets ports.WalletRepository, feed ports.WalletFeed, accounts ports.AccountRepository, accrualInterval time.Duration, log zerolog.Logger) *SessionRegistry {
	return &SessionRegistry{
		wallets:         wallets,
		feed:            feed,
		accounts:        accounts,
		accrualInterval: accrualInterval,
		log:             log,
		sessions:        make(map[string]*Session),
	}
}

// Open returns the account's session, loading its wallet on first use.
// Concurrent opens for the same account share one load, which is detached
// from the cancellation of whichever caller started it.
func (r *SessionRegistry) Open(ctx context.Context, accountID string) (*Session, error) {
	if accountID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if s, ok := r.Get(accountID); ok {
		return s, nil
	}

	v, err, _ := r.group.Do(accountID, func() (any, error) {
		if s, ok := r.Get(accountID); ok {
			return s, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionOpenTimeout)
		defer cancel()

		if r.accounts != nil {
			account, err := r.accounts.FindByID(loadCtx, accountID)
			if err != nil {
				return nil, err
			}
			if !account.Active {
				return nil, domain.ErrAccountDisabled
			}
		}

		wallet := NewWalletManager(r.wallets, r.feed, r.log)
		if err := wallet.Load(loadCtx, accountID); err != nil {
			return nil, err
		}
		wallet.StartAccrual(r.accrualInterval)

		s := &Session{
			AccountID: accountID,
			Wallet:    wallet,
			Cart:      NewCart(),
			OpenedAt:  time.Now().UTC(),
		}
		r.mu.Lock()
		r.sessions[accountID] = s
		r.mu.Unlock()
		metrics.ActiveSessions.Inc()

		r.log.Info().Str("account_id", accountID).Msg("session opened")
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Get returns the open session for accountID, if any.
func (r *SessionRegistry) Get(accountID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[accountID]
	return s, ok
}

// End closes the account's session. Late gateway results and pushes for the
// closed wallet are discarded. Ending an unknown account is a no-op.
func (r *SessionRegistry) End(accountID string) {
	r.mu.Lock()
	s, ok := r.sessions[accountID]
	delete(r.sessions, accountID)
	r.mu.Unlock()
	if !ok {
		return
	}

	s.Wallet.Close()
	metrics.ActiveSessions.Dec()
	r.log.Info().Str("account_id", accountID).Msg("session ended")
}

// CloseAll ends every session; used on shutdown.
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Wallet.Close()
		metrics.ActiveSessions.Dec()
	}
	if len(sessions) > 0 {
		r.log.Info().Int("sessions", len(sessions)).Msg("all sessions closed")
	}
}

// Len reports the number of open sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
