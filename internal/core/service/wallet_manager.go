package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/schoolcanteen/canteen-system/internal/api/metrics"
	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

const accrualCallTimeout = 10 * time.Second

// WalletState is the load lifecycle of a WalletManager.
type WalletState int

const (
	WalletUnloaded WalletState = iota
	WalletLoading
	WalletReady
	WalletClosed
)

func (s WalletState) String() string {
	switch s {
	case WalletUnloaded:
		return "unloaded"
	case WalletLoading:
		return "loading"
	case WalletReady:
		return "ready"
	case WalletClosed:
		return "closed"
	default:
		return fmt.Sprintf("WalletState(%d)", int(s))
	}
}

// WalletManager owns the balance and ticket count of one account for the
// lifetime of a session and keeps them consistent with the gateway.
//
// The manager holds the last snapshot confirmed by the store (ordered by the
// store's row version) plus the ticket accruals still in flight. Pushed
// snapshots that arrive while an accrual is pending are held back and
// reconciled once the write settles.
type WalletManager struct {
	repo ports.WalletRepository
	feed ports.WalletFeed
	log  zerolog.Logger
	now  func() time.Time

	mu             sync.Mutex
	state          WalletState
	accountID      string
	confirmed      domain.Wallet
	pendingTickets int
	deferred       *domain.Wallet
	unsubscribe    func()
	stopAccrual    context.CancelFunc
	accrualEvery   time.Duration
}

// NewWalletManager returns an unloaded manager.
func NewWalletManager(repo ports.WalletRepository, feed ports.WalletFeed, log zerolog.Logger) *WalletManager {
	return &WalletManager{
		repo: repo,
		feed: feed,
		log:  log,
		now:  time.Now,
	}
}

// Load fetches the account's wallet and subscribes to its change feed. An
// account without a wallet row starts at zero. On failure the manager returns
// to Unloaded and Load may be retried.
func (m *WalletManager) Load(ctx context.Context, accountID string) error {
	if accountID == "" {
		return domain.ErrNotAuthenticated
	}

	m.mu.Lock()
	switch m.state {
	case WalletReady:
		same := m.accountID == accountID
		m.mu.Unlock()
		if same {
			return nil
		}
		return fmt.Errorf("load wallet: %w: manager bound to another account", domain.ErrForbidden)
	case WalletLoading:
		m.mu.Unlock()
		return fmt.Errorf("load wallet: %w: load in progress", domain.ErrWalletNotLoaded)
	case WalletClosed:
		m.mu.Unlock()
		return fmt.Errorf("load wallet: %w: session closed", domain.ErrWalletNotLoaded)
	}
	m.state = WalletLoading
	m.accountID = accountID
	m.confirmed = domain.EmptyWallet(accountID)
	m.mu.Unlock()

	w, err := m.repo.FetchWallet(ctx, accountID)
	switch {
	case errors.Is(err, domain.ErrWalletNotFound):
		empty := domain.EmptyWallet(accountID)
		w = &empty
	case err != nil:
		m.resetLoad()
		return fmt.Errorf("load wallet: %w", asGatewayError(err))
	}

	unsubscribe, err := m.feed.SubscribeWalletChanges(ctx, accountID, func(pushed domain.Wallet) {
		m.ApplyPush(pushed)
	})
	if err != nil {
		m.resetLoad()
		return fmt.Errorf("load wallet: subscribe: %w", asGatewayError(err))
	}

	m.mu.Lock()
	if m.state != WalletLoading {
		m.mu.Unlock()
		unsubscribe()
		return fmt.Errorf("load wallet: %w: session closed", domain.ErrWalletNotLoaded)
	}
	// A push may already have landed between subscribe and here.
	if !m.confirmed.NewerThan(*w) {
		m.confirmed = *w
	}
	m.unsubscribe = unsubscribe
	m.state = WalletReady
	m.mu.Unlock()

	m.log.Debug().
		Str("account_id", accountID).
		Str("balance", w.Balance.StringFixed(2)).
		Int("tickets", w.Tickets).
		Int64("version", w.Version).
		Msg("wallet loaded")
	return nil
}

func (m *WalletManager) resetLoad() {
	m.mu.Lock()
	if m.state == WalletLoading {
		m.state = WalletUnloaded
		m.accountID = ""
		m.confirmed = domain.Wallet{}
	}
	m.mu.Unlock()
}

// State reports the current lifecycle state.
func (m *WalletManager) State() WalletState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AccountID returns the account the manager was loaded for.
func (m *WalletManager) AccountID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accountID
}

// Snapshot returns the wallet as the customer should see it: the confirmed
// snapshot plus any accrual still in flight.
func (m *WalletManager) Snapshot() (domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != WalletReady {
		return domain.Wallet{}, domain.ErrWalletNotLoaded
	}
	w := m.confirmed
	w.Tickets += m.pendingTickets
	return w, nil
}

// Debit takes amount off the balance. The covering check is evaluated by the
// store, so two sessions racing on one wallet cannot both spend the same
// money. On domain.ErrInsufficientFunds nothing changes locally or remotely,
// and the manager re-reads the wallet so callers see the winning balance.
func (m *WalletManager) Debit(ctx context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	accountID, err := m.readyAccount()
	if err != nil {
		return err
	}

	w, err := m.repo.AdjustBalance(ctx, accountID, amount.Neg())
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			metrics.WalletDebitsTotal.WithLabelValues("balance", "insufficient").Inc()
			m.refresh(ctx, accountID)
			return fmt.Errorf("debit: %w", domain.ErrInsufficientFunds)
		}
		metrics.WalletDebitsTotal.WithLabelValues("balance", "error").Inc()
		return fmt.Errorf("debit: %w", asGatewayError(err))
	}

	metrics.WalletDebitsTotal.WithLabelValues("balance", "ok").Inc()
	m.apply(*w)
	return nil
}

// DebitTickets redeems count tickets under the same discipline as Debit.
func (m *WalletManager) DebitTickets(ctx context.Context, count int) error {
	if count <= 0 {
		return domain.ErrInvalidTickets
	}
	accountID, err := m.readyAccount()
	if err != nil {
		return err
	}

	w, err := m.repo.AdjustTickets(ctx, accountID, -count)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientTickets) {
			metrics.WalletDebitsTotal.WithLabelValues("tickets", "insufficient").Inc()
			m.refresh(ctx, accountID)
			return fmt.Errorf("debit tickets: %w", domain.ErrInsufficientTickets)
		}
		metrics.WalletDebitsTotal.WithLabelValues("tickets", "error").Inc()
		return fmt.Errorf("debit tickets: %w", asGatewayError(err))
	}

	metrics.WalletDebitsTotal.WithLabelValues("tickets", "ok").Inc()
	m.apply(*w)
	return nil
}

// Credit adds amount to the balance (top-ups and checkout reversals).
func (m *WalletManager) Credit(ctx context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	accountID, err := m.readyAccount()
	if err != nil {
		return err
	}

	w, err := m.repo.AdjustBalance(ctx, accountID, amount)
	if err != nil {
		return fmt.Errorf("credit: %w", asGatewayError(err))
	}
	m.apply(*w)
	return nil
}

// CreditTickets gives back count tickets (checkout reversals).
func (m *WalletManager) CreditTickets(ctx context.Context, count int) error {
	if count <= 0 {
		return domain.ErrInvalidTickets
	}
	accountID, err := m.readyAccount()
	if err != nil {
		return err
	}

	w, err := m.repo.AdjustTickets(ctx, accountID, count)
	if err != nil {
		return fmt.Errorf("credit tickets: %w", asGatewayError(err))
	}
	m.apply(*w)
	return nil
}

// AccrueTicket adds exactly one loyalty ticket. The visible count rises
// before the store answers; if the store rejects the write the optimistic
// ticket is withdrawn again.
func (m *WalletManager) AccrueTicket(ctx context.Context) error {
	m.mu.Lock()
	if m.state != WalletReady {
		m.mu.Unlock()
		return domain.ErrWalletNotLoaded
	}
	accountID := m.accountID
	minGap := m.accrualEvery / 2
	m.pendingTickets++
	m.mu.Unlock()

	w, err := m.repo.AccrueTicket(ctx, accountID, m.now().UTC(), minGap)

	m.mu.Lock()
	m.pendingTickets--
	if err == nil {
		m.offerLocked(*w)
	}
	m.settleLocked()
	m.mu.Unlock()

	switch {
	case err == nil:
		metrics.TicketAccrualsTotal.WithLabelValues("ok").Inc()
		m.log.Debug().Str("account_id", accountID).Int("tickets", w.Tickets).Msg("ticket accrued")
		return nil
	case errors.Is(err, domain.ErrAccrualNotDue):
		metrics.TicketAccrualsTotal.WithLabelValues("not_due").Inc()
		return fmt.Errorf("accrue ticket: %w", domain.ErrAccrualNotDue)
	default:
		metrics.TicketAccrualsTotal.WithLabelValues("error").Inc()
		m.log.Warn().Err(err).Str("account_id", accountID).Msg("ticket accrual not persisted, optimistic ticket withdrawn")
		return fmt.Errorf("accrue ticket: %w", asGatewayError(err))
	}
}

// StartAccrual runs AccrueTicket every interval until Close. A non-positive
// interval disables accrual. Calling it twice has no effect.
func (m *WalletManager) StartAccrual(interval time.Duration) {
	if interval <= 0 {
		return
	}

	m.mu.Lock()
	if m.state != WalletReady || m.stopAccrual != nil {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.stopAccrual = cancel
	m.accrualEvery = interval
	m.mu.Unlock()

	go m.runAccrual(ctx, interval)
}

func (m *WalletManager) runAccrual(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			callCtx, cancel := context.WithTimeout(ctx, accrualCallTimeout)
			err := m.AccrueTicket(callCtx)
			cancel()
			switch {
			case err == nil, errors.Is(err, domain.ErrAccrualNotDue):
			case errors.Is(err, domain.ErrWalletNotLoaded):
				return
			default:
				m.log.Error().Err(err).Str("account_id", m.AccountID()).Msg("scheduled ticket accrual failed")
			}
		}
	}
}

// ApplyPush reconciles a snapshot pushed by the gateway. It reports whether
// the snapshot became the confirmed state. Snapshots that are not newer than
// the confirmed one, belong to another account, or arrive after Close are
// ignored.
func (m *WalletManager) ApplyPush(w domain.Wallet) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if (m.state != WalletReady && m.state != WalletLoading) || w.AccountID != m.accountID {
		metrics.WalletPushesTotal.WithLabelValues("dropped").Inc()
		return false
	}
	if !w.NewerThan(m.confirmed) {
		metrics.WalletPushesTotal.WithLabelValues("stale").Inc()
		return false
	}
	if m.pendingTickets > 0 {
		m.offerLocked(w)
		metrics.WalletPushesTotal.WithLabelValues("deferred").Inc()
		return false
	}
	m.confirmed = w
	metrics.WalletPushesTotal.WithLabelValues("applied").Inc()
	return true
}

// Close releases the subscription and stops the accrual timer. Results of
// gateway calls still in flight are discarded.
func (m *WalletManager) Close() {
	m.mu.Lock()
	if m.state == WalletClosed {
		m.mu.Unlock()
		return
	}
	m.state = WalletClosed
	unsubscribe, stop := m.unsubscribe, m.stopAccrual
	m.unsubscribe, m.stopAccrual, m.deferred = nil, nil, nil
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (m *WalletManager) readyAccount() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != WalletReady {
		return "", domain.ErrWalletNotLoaded
	}
	return m.accountID, nil
}

// apply installs a snapshot returned by a gateway write.
func (m *WalletManager) apply(w domain.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != WalletReady {
		return
	}
	if m.pendingTickets > 0 {
		m.offerLocked(w)
		return
	}
	if w.NewerThan(m.confirmed) {
		m.confirmed = w
	}
}

// offerLocked keeps the newest snapshot seen while an accrual is pending.
func (m *WalletManager) offerLocked(w domain.Wallet) {
	if m.deferred == nil || w.NewerThan(*m.deferred) {
		m.deferred = &w
	}
}

// settleLocked promotes the held-back snapshot once no accrual is pending.
func (m *WalletManager) settleLocked() {
	if m.pendingTickets > 0 || m.deferred == nil {
		return
	}
	if m.state == WalletReady && m.deferred.NewerThan(m.confirmed) {
		m.confirmed = *m.deferred
	}
	m.deferred = nil
}

func (m *WalletManager) refresh(ctx context.Context, accountID string) {
	w, err := m.repo.FetchWallet(ctx, accountID)
	if err != nil {
		m.log.Warn().Err(err).Str("account_id", accountID).Msg("wallet refresh failed")
		return
	}
	m.apply(*w)
}

// asGatewayError tags infrastructure failures with domain.ErrGatewayUnavailable
// unless they already carry a domain meaning.
func asGatewayError(err error) error {
	if errors.Is(err, domain.ErrGatewayUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
}
