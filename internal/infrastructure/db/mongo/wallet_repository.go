package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

const collectionWallets = "wallets"

// WalletRepository stores one document per account, keyed by account id.
//
// Debits are single conditional FindOneAndUpdate calls: the covering check
// lives in the filter, so the server either applies the decrement or matches
// nothing. Every committed write bumps version and is published to the
// change feed.
type WalletRepository struct {
	col       *mongo.Collection
	publisher ports.WalletPublisher
	log       zerolog.Logger
	now       func() time.Time
}

var _ ports.WalletRepository = (*WalletRepository)(nil)

// NewWalletRepository creates a WalletRepository. publisher may be nil.
func NewWalletRepository(db *mongo.Database, publisher ports.WalletPublisher, log zerolog.Logger) *WalletRepository {
	return &WalletRepository{
		col:       db.Collection(collectionWallets),
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

type walletDoc struct {
	AccountID     string     `bson:"_id"`
	BalanceCents  int64      `bson:"balance_cents"`
	Tickets       int        `bson:"tickets"`
	LastAccrualAt *time.Time `bson:"last_accrual_at,omitempty"`
	Version       int64      `bson:"version"`
	UpdatedAt     time.Time  `bson:"updated_at"`
}

func (d walletDoc) toDomain() *domain.Wallet {
	w := &domain.Wallet{
		AccountID: d.AccountID,
		Balance:   fromCents(d.BalanceCents),
		Tickets:   d.Tickets,
		Version:   d.Version,
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	if d.LastAccrualAt != nil {
		w.LastAccrualAt = d.LastAccrualAt.UTC()
	}
	return w
}

func (r *WalletRepository) FetchWallet(ctx context.Context, accountID string) (*domain.Wallet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc walletDoc
	err := r.col.FindOne(ctx, bson.M{"_id": accountID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, unavailable("fetch wallet", err)
	}
	return doc.toDomain(), nil
}

func (r *WalletRepository) UpsertWallet(ctx context.Context, accountID string, patch domain.WalletPatch) (*domain.Wallet, error) {
	set := bson.M{"updated_at": r.now().UTC()}
	setOnInsert := bson.M{}
	if patch.Balance != nil {
		set["balance_cents"] = toCents(*patch.Balance)
	} else {
		setOnInsert["balance_cents"] = int64(0)
	}
	if patch.Tickets != nil {
		set["tickets"] = *patch.Tickets
	} else {
		setOnInsert["tickets"] = 0
	}

	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	if len(setOnInsert) > 0 {
		update["$setOnInsert"] = setOnInsert
	}
	return r.write(ctx, "upsert wallet", bson.M{"_id": accountID}, update, true)
}

// AdjustBalance adds delta to the balance. A negative delta only applies if
// the stored balance covers it; otherwise domain.ErrInsufficientFunds.
func (r *WalletRepository) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) (*domain.Wallet, error) {
	cents := toCents(delta)
	filter := bson.M{"_id": accountID}
	if cents < 0 {
		filter["balance_cents"] = bson.M{"$gte": -cents}
	}
	update := bson.M{
		"$inc":         bson.M{"balance_cents": cents, "version": 1},
		"$set":         bson.M{"updated_at": r.now().UTC()},
		"$setOnInsert": bson.M{"tickets": 0},
	}

	w, err := r.write(ctx, "adjust balance", filter, update, cents >= 0)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrInsufficientFunds
	}
	return w, err
}

// AdjustTickets adds delta to the ticket count under the same rule as
// AdjustBalance.
func (r *WalletRepository) AdjustTickets(ctx context.Context, accountID string, delta int) (*domain.Wallet, error) {
	filter := bson.M{"_id": accountID}
	if delta < 0 {
		filter["tickets"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc":         bson.M{"tickets": delta, "version": 1},
		"$set":         bson.M{"updated_at": r.now().UTC()},
		"$setOnInsert": bson.M{"balance_cents": int64(0)},
	}

	w, err := r.write(ctx, "adjust tickets", filter, update, delta >= 0)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrInsufficientTickets
	}
	return w, err
}

// AccrueTicket adds one ticket unless the previous accrual is more recent
// than at-minGap. When the wallet exists but is not due, the filter misses
// and the upsert collides on _id, which reads as domain.ErrAccrualNotDue.
func (r *WalletRepository) AccrueTicket(ctx context.Context, accountID string, at time.Time, minGap time.Duration) (*domain.Wallet, error) {
	at = at.UTC()
	filter := bson.M{
		"_id": accountID,
		"$or": bson.A{
			bson.M{"last_accrual_at": bson.M{"$exists": false}},
			bson.M{"last_accrual_at": nil},
			bson.M{"last_accrual_at": bson.M{"$lte": at.Add(-minGap)}},
		},
	}
	update := bson.M{
		"$inc":         bson.M{"tickets": 1, "version": 1},
		"$set":         bson.M{"last_accrual_at": at, "updated_at": at},
		"$setOnInsert": bson.M{"balance_cents": int64(0)},
	}

	w, err := r.write(ctx, "accrue ticket", filter, update, true)
	if errors.Is(err, errUpsertCollision) {
		return nil, domain.ErrAccrualNotDue
	}
	return w, err
}

var errUpsertCollision = errors.New("upsert collided with existing wallet")

// write runs one FindOneAndUpdate and publishes the resulting snapshot.
// mongo.ErrNoDocuments is returned unwrapped so callers can map it.
func (r *WalletRepository) write(ctx context.Context, op string, filter, update bson.M, upsert bool) (*domain.Wallet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetUpsert(upsert)

	var doc walletDoc
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil && upsert && mongo.IsDuplicateKeyError(err) {
		if _, conditional := filter["$or"]; conditional {
			return nil, errUpsertCollision
		}
		// Two first writes raced to create the document; the loser retries
		// against the row that now exists.
		err = r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, unavailable(op, err)
	}

	w := doc.toDomain()
	r.publish(ctx, *w)
	return w, nil
}

// publish is best effort: the write is committed, and sessions that miss the
// push still converge on their next write or load.
func (r *WalletRepository) publish(ctx context.Context, w domain.Wallet) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishWalletChange(ctx, w); err != nil {
		r.log.Warn().Err(err).
			Str("account_id", w.AccountID).
			Int64("version", w.Version).
			Msg("wallet change not published")
	}
}
