package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schoolcanteen/canteen-system/internal/core/domain"
	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

const collectionCards = "cards"

type CardRepository struct {
	col *mongo.Collection
}

var _ ports.CardRepository = (*CardRepository)(nil)

func NewCardRepository(db *mongo.Database) *CardRepository {
	return &CardRepository{col: db.Collection(collectionCards)}
}

type cardDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	AccountID  string             `bson:"account_id"`
	HolderName string             `bson:"holder_name"`
	Brand      string             `bson:"brand"`
	Last4      string             `bson:"last4"`
	Expiry     string             `bson:"expiry"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (r *CardRepository) Insert(ctx context.Context, card *domain.Card) (*domain.Card, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := cardDoc{
		ID:         primitive.NewObjectID(),
		AccountID:  card.AccountID,
		HolderName: card.HolderName,
		Brand:      string(card.Brand),
		Last4:      card.Last4,
		Expiry:     card.Expiry,
		CreatedAt:  card.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, unavailable("insert card", err)
	}

	created := *card
	created.ID = doc.ID.Hex()
	return &created, nil
}

// ListByAccount returns the account's cards, newest first.
func (r *CardRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.Card, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"account_id": accountID}, opts)
	if err != nil {
		return nil, unavailable("list cards", err)
	}
	var docs []cardDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, unavailable("decode cards", err)
	}

	out := make([]domain.Card, len(docs))
	for i, d := range docs {
		out[i] = domain.Card{
			ID:         d.ID.Hex(),
			AccountID:  d.AccountID,
			HolderName: d.HolderName,
			Brand:      domain.CardBrand(d.Brand),
			Last4:      d.Last4,
			Expiry:     d.Expiry,
			CreatedAt:  d.CreatedAt.UTC(),
		}
	}
	return out, nil
}

// Delete removes the card only if it belongs to accountID.
func (r *CardRepository) Delete(ctx context.Context, accountID, cardID string) error {
	oid, err := primitive.ObjectIDFromHex(cardID)
	if err != nil {
		return domain.ErrCardNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid, "account_id": accountID})
	if err != nil {
		return unavailable("delete card", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCardNotFound
	}
	return nil
}
