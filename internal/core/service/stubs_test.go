package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
)

var errStoreDown = errors.New("store down")

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ---------------------------------------------------------------------------
// Wallet store
// ---------------------------------------------------------------------------

// stubWalletRepo applies every conditional update under one mutex, the way
// the document store applies a filtered update atomically.
type stubWalletRepo struct {
	mu      sync.Mutex
	wallets map[string]domain.Wallet

	fetchErr   error
	balanceErr error
	ticketsErr error
	accrueErr  error

	// accrueEntered/accrueGate let a test hold an accrual after it committed
	// but before its result reaches the caller.
	accrueEntered chan struct{}
	accrueGate    chan struct{}

	balanceCalls int
	ticketsCalls int
}

func newStubWalletRepo() *stubWalletRepo {
	return &stubWalletRepo{wallets: make(map[string]domain.Wallet)}
}

func (r *stubWalletRepo) seed(accountID, balance string, tickets int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[accountID] = domain.Wallet{
		AccountID: accountID,
		Balance:   dec(balance),
		Tickets:   tickets,
		Version:   1,
	}
}

func (r *stubWalletRepo) get(accountID string) domain.Wallet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wallets[accountID]
}

func (r *stubWalletRepo) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balanceCalls + r.ticketsCalls
}

func (r *stubWalletRepo) FetchWallet(ctx context.Context, accountID string) (*domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	w, ok := r.wallets[accountID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return &w, nil
}

func (r *stubWalletRepo) UpsertWallet(_ context.Context, accountID string, patch domain.WalletPatch) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.loadLocked(accountID)
	if patch.Balance != nil {
		w.Balance = *patch.Balance
	}
	if patch.Tickets != nil {
		w.Tickets = *patch.Tickets
	}
	return r.storeLocked(w), nil
}

func (r *stubWalletRepo) AdjustBalance(_ context.Context, accountID string, delta decimal.Decimal) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balanceCalls++
	if r.balanceErr != nil {
		return nil, r.balanceErr
	}
	w := r.loadLocked(accountID)
	next := w.Balance.Add(delta)
	if next.IsNegative() {
		return nil, domain.ErrInsufficientFunds
	}
	w.Balance = next
	return r.storeLocked(w), nil
}

func (r *stubWalletRepo) AdjustTickets(_ context.Context, accountID string, delta int) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticketsCalls++
	if r.ticketsErr != nil {
		return nil, r.ticketsErr
	}
	w := r.loadLocked(accountID)
	if w.Tickets+delta < 0 {
		return nil, domain.ErrInsufficientTickets
	}
	w.Tickets += delta
	return r.storeLocked(w), nil
}

func (r *stubWalletRepo) AccrueTicket(ctx context.Context, accountID string, at time.Time, minGap time.Duration) (*domain.Wallet, error) {
	r.mu.Lock()
	if r.accrueErr != nil {
		err := r.accrueErr
		r.mu.Unlock()
		r.hold(ctx)
		return nil, err
	}
	w := r.loadLocked(accountID)
	if !w.LastAccrualAt.IsZero() && at.Sub(w.LastAccrualAt) < minGap {
		r.mu.Unlock()
		return nil, domain.ErrAccrualNotDue
	}
	w.Tickets++
	w.LastAccrualAt = at
	stored := r.storeLocked(w)
	r.mu.Unlock()

	r.hold(ctx)
	return stored, nil
}

func (r *stubWalletRepo) hold(ctx context.Context) {
	if r.accrueEntered == nil {
		return
	}
	r.accrueEntered <- struct{}{}
	select {
	case <-r.accrueGate:
	case <-ctx.Done():
	}
}

func (r *stubWalletRepo) loadLocked(accountID string) domain.Wallet {
	w, ok := r.wallets[accountID]
	if !ok {
		w = domain.EmptyWallet(accountID)
	}
	return w
}

func (r *stubWalletRepo) storeLocked(w domain.Wallet) *domain.Wallet {
	w.Version++
	w.UpdatedAt = time.Now().UTC()
	r.wallets[w.AccountID] = w
	return &w
}

// ---------------------------------------------------------------------------
// Wallet feed
// ---------------------------------------------------------------------------

type stubFeed struct {
	mu           sync.Mutex
	handlers     map[string]func(domain.Wallet)
	subscribeErr error
	unsubscribed int
}

func newStubFeed() *stubFeed {
	return &stubFeed{handlers: make(map[string]func(domain.Wallet))}
}

func (f *stubFeed) SubscribeWalletChanges(_ context.Context, accountID string, onChange func(domain.Wallet)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	f.handlers[accountID] = onChange
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.handlers, accountID)
			f.unsubscribed++
			f.mu.Unlock()
		})
	}, nil
}

func (f *stubFeed) push(w domain.Wallet) {
	f.mu.Lock()
	h := f.handlers[w.AccountID]
	f.mu.Unlock()
	if h != nil {
		h(w)
	}
}

func (f *stubFeed) unsubscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribed
}

// ---------------------------------------------------------------------------
// Purchase store
// ---------------------------------------------------------------------------

type stubPurchaseRepo struct {
	mu        sync.Mutex
	purchases []domain.Purchase
	lines     map[string][]domain.PurchaseLine
	nextID    int

	insertErr error
	linesErr  error
	listErr   error
	deleted   []string

	// insertDelay slows InsertPurchase down outside the lock.
	insertDelay time.Duration
}

func newStubPurchaseRepo() *stubPurchaseRepo {
	return &stubPurchaseRepo{lines: make(map[string][]domain.PurchaseLine)}
}

func (r *stubPurchaseRepo) InsertPurchase(_ context.Context, p *domain.Purchase) (string, error) {
	if r.insertDelay > 0 {
		time.Sleep(r.insertDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return "", r.insertErr
	}
	r.nextID++
	stored := *p
	stored.ID = fmt.Sprintf("p-%d", r.nextID)
	r.purchases = append(r.purchases, stored)
	return stored.ID, nil
}

func (r *stubPurchaseRepo) InsertPurchaseLines(_ context.Context, lines []domain.PurchaseLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.linesErr != nil {
		return r.linesErr
	}
	for _, l := range lines {
		r.lines[l.PurchaseID] = append(r.lines[l.PurchaseID], l)
	}
	return nil
}

func (r *stubPurchaseRepo) DeletePurchase(_ context.Context, purchaseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.purchases {
		if p.ID == purchaseID {
			r.purchases = append(r.purchases[:i], r.purchases[i+1:]...)
			delete(r.lines, purchaseID)
			r.deleted = append(r.deleted, purchaseID)
			return nil
		}
	}
	return domain.ErrPurchaseNotFound
}

func (r *stubPurchaseRepo) ListPurchases(_ context.Context, accountID string) ([]domain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.Purchase
	for _, p := range r.purchases {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubPurchaseRepo) ListPurchaseLines(_ context.Context, purchaseID string) ([]domain.PurchaseLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.PurchaseLine(nil), r.lines[purchaseID]...), nil
}

func (r *stubPurchaseRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.purchases)
}

// ---------------------------------------------------------------------------
// Receipt store
// ---------------------------------------------------------------------------

type stubReceiptStore struct {
	mu       sync.Mutex
	receipts map[string]domain.Receipt
	getErr   error
}

func newStubReceiptStore() *stubReceiptStore {
	return &stubReceiptStore{receipts: make(map[string]domain.Receipt)}
}

func (s *stubReceiptStore) Get(_ context.Context, accountID, key string) (*domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	r, ok := s.receipts[accountID+"/"+key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *stubReceiptStore) Put(_ context.Context, accountID, key string, r domain.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[accountID+"/"+key] = r
	return nil
}

// ---------------------------------------------------------------------------
// Catalog, accounts, cards
// ---------------------------------------------------------------------------

type stubProductRepo struct {
	mu       sync.Mutex
	products []domain.Product
	countErr error
	inserted int
}

func (r *stubProductRepo) List(_ context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Product(nil), r.products...), nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (r *stubProductRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	return int64(len(r.products)), nil
}

func (r *stubProductRepo) InsertMany(_ context.Context, products []domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = append(r.products, products...)
	r.inserted += len(products)
	return nil
}

type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	nextID   int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == account.Email {
			return nil, domain.ErrAccountExists
		}
	}
	r.nextID++
	stored := cloneAccount(account)
	if stored.ID == "" {
		stored.ID = fmt.Sprintf("acc-%d", r.nextID)
	}
	r.accounts[stored.ID] = stored
	return cloneAccount(stored), nil
}

func (r *stubAccountRepo) List(_ context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClassGroup != out[j].ClassGroup {
			return out[i].ClassGroup < out[j].ClassGroup
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *stubAccountRepo) Update(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

type stubCardRepo struct {
	mu     sync.Mutex
	cards  []domain.Card
	nextID int
}

func (r *stubCardRepo) Insert(_ context.Context, card *domain.Card) (*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := *card
	stored.ID = fmt.Sprintf("card-%d", r.nextID)
	r.cards = append(r.cards, stored)
	return &stored, nil
}

func (r *stubCardRepo) ListByAccount(_ context.Context, accountID string) ([]domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Card
	for i := len(r.cards) - 1; i >= 0; i-- {
		if r.cards[i].AccountID == accountID {
			out = append(out, r.cards[i])
		}
	}
	return out, nil
}

func (r *stubCardRepo) Delete(_ context.Context, accountID, cardID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.cards {
		if c.ID == cardID && c.AccountID == accountID {
			r.cards = append(r.cards[:i], r.cards[i+1:]...)
			return nil
		}
	}
	return domain.ErrCardNotFound
}
