package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

const (
	walletChannelPrefix  = "wallet:"
	walletChannelPattern = walletChannelPrefix + "*"
)

// WalletSink receives decoded wallet snapshots from the pub/sub loop.
type WalletSink interface {
	Enqueue(w domain.Wallet)
}

// WalletFeed carries wallet snapshots between server instances over Redis
// pub/sub. Every committed wallet write is published on wallet:<account_id>;
// one pattern subscription per process fans the messages out to the sessions
// registered locally.
type WalletFeed struct {
	client *redis.Client
	log    zerolog.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]func(domain.Wallet)
}

var (
	_ ports.WalletPublisher     = (*WalletFeed)(nil)
	_ ports.WalletFeed          = (*WalletFeed)(nil)
	_ ports.WalletChangeHandler = (*WalletFeed)(nil)
)

func NewWalletFeed(client *redis.Client, log zerolog.Logger) *WalletFeed {
	return &WalletFeed{
		client: client,
		log:    log,
		subs:   make(map[string]map[uint64]func(domain.Wallet)),
	}
}

// PublishWalletChange announces a committed wallet snapshot.
func (f *WalletFeed) PublishWalletChange(ctx context.Context, w domain.Wallet) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode wallet change: %w", err)
	}
	if err := f.client.Publish(ctx, walletChannelPrefix+w.AccountID, payload).Err(); err != nil {
		return fmt.Errorf("publish wallet change: %w", err)
	}
	return nil
}

// SubscribeWalletChanges registers onChange for the account's snapshots.
// The returned func is idempotent.
func (f *WalletFeed) SubscribeWalletChanges(_ context.Context, accountID string, onChange func(domain.Wallet)) (func(), error) {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	if f.subs[accountID] == nil {
		f.subs[accountID] = make(map[uint64]func(domain.Wallet))
	}
	f.subs[accountID][id] = onChange
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[accountID], id)
			if len(f.subs[accountID]) == 0 {
				delete(f.subs, accountID)
			}
			f.mu.Unlock()
		})
	}, nil
}

// HandleWalletChange delivers w to every local subscriber of its account.
func (f *WalletFeed) HandleWalletChange(_ context.Context, w domain.Wallet) error {
	f.mu.RLock()
	handlers := make([]func(domain.Wallet), 0, len(f.subs[w.AccountID]))
	for _, h := range f.subs[w.AccountID] {
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		h(w)
	}
	return nil
}

// Subscribers reports how many local handlers are registered for accountID.
func (f *WalletFeed) Subscribers(accountID string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[accountID])
}

// Run consumes wallet:* until ctx is cancelled, handing each snapshot to
// sink. It returns once the subscription is closed.
func (f *WalletFeed) Run(ctx context.Context, sink WalletSink) error {
	pubsub := f.client.PSubscribe(ctx, walletChannelPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", walletChannelPattern, err)
	}
	f.log.Info().Str("pattern", walletChannelPattern).Msg("wallet feed subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var w domain.Wallet
			if err := json.Unmarshal([]byte(msg.Payload), &w); err != nil {
				f.log.Warn().Err(err).Str("channel", msg.Channel).Msg("malformed wallet change dropped")
				continue
			}
			if w.AccountID == "" {
				w.AccountID = strings.TrimPrefix(msg.Channel, walletChannelPrefix)
			}
			sink.Enqueue(w)
		}
	}
}
